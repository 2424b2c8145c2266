package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName      = "bool"
	booleanFlagAcceptedNames = "true, false, yes, no, on, off, 1, 0"
)

var booleanLiterals = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "f": false, "0": false, "no": false, "n": false, "off": false,
}

func parseBooleanLiteral(input string) (bool, bool) {
	value, known := booleanLiterals[strings.ToLower(strings.TrimSpace(input))]
	return value, known
}

// booleanFlag accepts the usual yes/no spellings and may stand alone, so
// "--copy", "--copy=no" and "--copy off" all parse.
type booleanFlag struct {
	target *bool
	name   string
}

func (flag *booleanFlag) Set(input string) error {
	if strings.TrimSpace(input) == "" {
		*flag.target = true
		return nil
	}
	value, known := parseBooleanLiteral(input)
	if !known {
		return fmt.Errorf("invalid boolean value %q for --%s; accepted values: %s", input, flag.name, booleanFlagAcceptedNames)
	}
	*flag.target = value
	return nil
}

func (flag *booleanFlag) String() string {
	if flag == nil || flag.target == nil {
		return "false"
	}
	return strconv.FormatBool(*flag.target)
}

func (flag *booleanFlag) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&booleanFlag{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = "true"
}

// normalizeBooleanFlagArguments joins "--flag value" into "--flag=value" for boolean flags when value is a
// boolean literal; any other following argument stays positional.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	booleanNames := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanNames)
	if len(booleanNames) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == "--" {
			return append(normalized, arguments[index:]...)
		}
		name := strings.TrimPrefix(argument, "--")
		_, isBoolean := booleanNames[name]
		if isBoolean && strings.HasPrefix(argument, "--") && index+1 < len(arguments) {
			if _, known := parseBooleanLiteral(arguments[index+1]); known {
				normalized = append(normalized, argument+"="+arguments[index+1])
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil {
		return
	}
	collect := func(flag *pflag.Flag) {
		if flag.Value.Type() == booleanFlagTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(collect)
	command.Flags().VisitAll(collect)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
