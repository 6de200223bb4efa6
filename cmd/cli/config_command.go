package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gidx/internal/output"
)

const (
	configCommandNameConstant     = "config"
	configCommandShortDescription = "Print the effective configuration"
	configCommandLongDescription  = "config renders the fully merged configuration (embedded defaults, configuration file, environment, and flags) as YAML."

	configSourceCommentTemplateConstant = "# loaded from %s\n"
	configDefaultsCommentConstant       = "# built-in defaults (no configuration file found)\n"
)

// configCommandBuilder assembles the config command over the owning application.
type configCommandBuilder struct {
	application *Application
}

// Build constructs the cobra command that prints the effective configuration.
func (builder configCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   configCommandNameConstant,
		Short: configCommandShortDescription,
		Long:  configCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder configCommandBuilder) run(command *cobra.Command, _ []string) error {
	writer := command.OutOrStdout()
	effectiveConfiguration := builder.application.configuration

	if builder.application.outputFormat == output.FormatJSON {
		return output.WriteJSON(writer, effectiveConfiguration)
	}

	configurationFileUsed := builder.application.configurationMetadata.ConfigFileUsed
	if len(configurationFileUsed) > 0 {
		fmt.Fprintf(writer, configSourceCommentTemplateConstant, configurationFileUsed)
	} else {
		fmt.Fprint(writer, configDefaultsCommentConstant)
	}

	encodedConfiguration, marshalError := yaml.Marshal(effectiveConfiguration)
	if marshalError != nil {
		return marshalError
	}
	_, writeError := writer.Write(encodedConfiguration)
	return writeError
}
