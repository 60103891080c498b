package version

// Version is the release identifier reported in logs and the default User-Agent.
var Version = "v1.0.0"
