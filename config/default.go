package config

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[Server]
Host = "0.0.0.0"
Port = 8123
ReadTimeout = "60s"
WriteTimeout = "60s"
MaxRequestsPerIPAndSecond = 500
EnableHttpLog = true
BatchRequestsEnabled = false
BatchRequestsLimit = 20

[DB]
User = "mempush_user"
Password = "mempush_password"
Name = "mempush_db"
Host = "mempush-db"
Port = "5432"
EnableLog = false
MaxConns = 200

[Broadcaster]
RequestTimeout = "30s"

[Reconciler]
Workers = 5
SweepInterval = "60s"

[Metrics]
Host = "0.0.0.0"
Port = 9091
Enabled = false
ProfilingHost = "0.0.0.0"
ProfilingPort = 6060
ProfilingEnabled = false

# Mempool service endpoints can be overridden per network, for example to point
# testnetv3 at a self-hosted mempool instance:
#
# [Networks.testnetv3]
# MempoolURL = "https://my-mempool.example.com/testnet/api"
# ExplorerURL = "https://my-mempool.example.com/testnet"
`
