package ir

// Version is the routesync release version.
const Version = "0.1.0"
