package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/output"
)

const (
	verifyCommandNameConstant     = "verify"
	verifyCommandShortDescription = "Stat-check every catalogued repository against disk"
	verifyCommandLongDescription  = "verify stats every catalogued path without running git, marks repositories missing from disk as lost, and refreshes the verification timestamp of reachable ones."

	verifyResultTemplateConstant = "  verify: %d changed, %d unchanged, %d lost\n"
)

// VerifyCommandBuilder assembles the verify cobra command with configurable dependencies.
type VerifyCommandBuilder struct {
	ServiceProvider      ServiceProvider
	OutputFormatProvider OutputFormatProvider
}

// Build constructs the cobra command for catalogue verification.
func (builder *VerifyCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   verifyCommandNameConstant,
		Short: verifyCommandShortDescription,
		Long:  verifyCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

type verifyReportDocument struct {
	ChangedCount   int `json:"changed"`
	UnchangedCount int `json:"unchanged"`
	LostCount      int `json:"lost"`
}

func (builder *VerifyCommandBuilder) run(command *cobra.Command, _ []string) error {
	service, serviceError := resolveService(builder.ServiceProvider)
	if serviceError != nil {
		return serviceError
	}

	outcome, verifyError := service.Verify(command.Context())
	if verifyError != nil {
		return verifyError
	}

	writer := command.OutOrStdout()
	if resolveOutputFormat(builder.OutputFormatProvider) == output.FormatJSON {
		return output.WriteJSON(writer, verifyReportDocument{
			ChangedCount:   outcome.ChangedCount,
			UnchangedCount: outcome.UnchangedCount,
			LostCount:      outcome.LostCount,
		})
	}

	fmt.Fprintf(writer, verifyResultTemplateConstant, outcome.ChangedCount, outcome.UnchangedCount, outcome.LostCount)
	return nil
}
