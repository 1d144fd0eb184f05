// =============================================================================
// Order Reconciler - Main Entry Point
// =============================================================================
//
// USAGE:
//   reconciler generate  - Fill a price list from warehouse and preorder files
//   reconciler preview   - Show how a source document is read
//   reconciler validate  - Validate configuration files without processing
//   reconciler columns   - Convert column letters and indices
//   reconciler version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Reconciliation engine (not for external import)
//   - pkg/           : Shared file utilities
//   - suppliers/     : Supplier layout YAML files
//   - templates/     : Supplier price list templates
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/xlsx-order-reconciler/cmd"
)

func main() {
	cmd.Execute()
}
