package repos

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gidx/internal/output"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	forgetCommandUseConstant      = "forget <name-or-path>"
	forgetCommandShortDescription = "Remove a repository from the catalogue"
	forgetCommandLongDescription  = "forget deletes a repository's catalogue record. The repository itself is never touched; the next scan re-catalogues it if it still exists under a configured root."

	forgetConfirmFlagName        = "yes"
	forgetConfirmFlagDescription = "Skip the confirmation prompt"

	forgetPromptTemplateConstant    = "forget %s from the catalogue? [y/N] "
	forgetAbortedMessageConstant    = "aborted\n"
	forgetForgottenTemplateConstant = "forgot %s\n"
	forgetAffirmativeShortConstant  = "y"
	forgetAffirmativeLongConstant   = "yes"

	forgetLogMessageConstant   = "repository forgotten"
	forgetLogPathFieldConstant = "path"
	forgetLogNameFieldConstant = "name"
)

// ForgetCommandBuilder assembles the forget cobra command with configurable dependencies.
type ForgetCommandBuilder struct {
	LoggerProvider       LoggerProvider
	StoreProvider        StoreProvider
	OutputFormatProvider OutputFormatProvider
	HomeExpander         *pathutils.HomeExpander
}

// Build constructs the cobra command removing catalogue records.
func (builder *ForgetCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   forgetCommandUseConstant,
		Short: forgetCommandShortDescription,
		Long:  forgetCommandLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	command.Flags().Bool(forgetConfirmFlagName, false, forgetConfirmFlagDescription)
	return command, nil
}

func (builder *ForgetCommandBuilder) run(command *cobra.Command, arguments []string) error {
	store, storeError := resolveStore(builder.StoreProvider)
	if storeError != nil {
		return storeError
	}

	homeExpander := resolveHomeExpander(builder.HomeExpander)
	entry, lookupError := requireEntry(command.Context(), store, homeExpander, arguments[0])
	if lookupError != nil {
		return lookupError
	}

	writer := command.OutOrStdout()
	confirmed, _ := command.Flags().GetBool(forgetConfirmFlagName)
	if !confirmed {
		fmt.Fprintf(writer, forgetPromptTemplateConstant, homeExpander.Contract(entry.Path))
		if !readAffirmation(command) {
			fmt.Fprint(writer, forgetAbortedMessageConstant)
			return nil
		}
	}

	if forgetError := store.Forget(command.Context(), entry.Identifier); forgetError != nil {
		return forgetError
	}

	if builder.LoggerProvider != nil {
		if logger := builder.LoggerProvider(); logger != nil {
			logger.Info(
				forgetLogMessageConstant,
				zap.String(forgetLogNameFieldConstant, entry.Name),
				zap.String(forgetLogPathFieldConstant, entry.Path),
			)
		}
	}

	outputFormat := resolveOutputFormat(builder.OutputFormatProvider)
	if outputFormat == output.FormatJSON {
		return output.WriteJSON(writer, entry)
	}
	fmt.Fprintf(writer, forgetForgottenTemplateConstant, homeExpander.Contract(entry.Path))
	return nil
}

func readAffirmation(command *cobra.Command) bool {
	reader := bufio.NewReader(command.InOrStdin())
	line, readError := reader.ReadString('\n')
	if readError != nil && len(line) == 0 {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == forgetAffirmativeShortConstant || answer == forgetAffirmativeLongConstant
}
