package config

// Template is the commented file written by `config init`.
const Template = `# contract-metadata configuration
# Values here are overridden by CM_* environment variables and command line flags.

[registry]
# Directory containing metadata/ and icons/
root = "."

[fetch]
timeout_seconds = 30
max_redirects = 5
max_size_mb = 10
# Throttle remote image downloads during import (0 = unlimited)
rate_per_second = 0

[logging]
# debug, info, warn or error
level = "warn"
# console or json
format = "console"

[export]
token_list_name = "Contract Metadata"
logo_base_url = "https://raw.githubusercontent.com/MetaMask/contract-metadata/master/"
keywords = ["metamask", "default"]
version = "1.0.0"
# logo_uri = ""

[metrics]
# Write prometheus counters to a node_exporter textfile after each run
# textfile = "/var/lib/node_exporter/contract_metadata.prom"
`
