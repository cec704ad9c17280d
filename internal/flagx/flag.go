// Package flagx helps several components parse their own flags from one
// command line without tripping over each other.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments that belong to allowed flags, with their
// values. Both "-f value" and "-f=value" forms are kept. Flags listed in
// boolFlags never consume the following argument.
func FilterArgs(args []string, allowed []string, boolFlags ...string) []string {
	allow := make(map[string]struct{}, len(allowed)+len(boolFlags))
	for _, f := range allowed {
		allow[f] = struct{}{}
	}
	bools := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		allow[f] = struct{}{}
		bools[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allow[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allow[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if _, ok := bools[arg]; ok {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlag extracts the config file path given with -c or -config.
// It returns "" when neither is present.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
