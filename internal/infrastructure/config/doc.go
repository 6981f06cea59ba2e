// Package config handles loading and validating node daemon configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with COSMOS_* environment variables
//   - Validation of required fields, reporting every violation at once
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The JWT secret guards every write endpoint of the API
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Node.Dir)
package config
