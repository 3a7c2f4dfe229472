package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags adds one switch per option to fs. List options are plain
// string flags so that the file and the command line share SplitList.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, opt := range Options {
		switch opt.Type {
		case TypeBool:
			fs.BoolP(opt.Flag, opt.Shorthand, false, opt.Usage)
		case TypeList:
			fs.StringP(opt.Flag, opt.Shorthand, "", opt.Usage)
		default:
			fs.StringP(opt.Flag, opt.Shorthand, opt.Default.(string), opt.Usage)
		}
	}
}
