package main

import (
	"flag"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/spf13/viper"
)

// applyConfig reads the config file at path and sets every flag of fs that
// was not given on the command line and has a key of the same name in the
// file. Keys that name no flag of fs are ignored, so one file can serve all
// subcommands.
func applyConfig(fs *flag.FlagSet, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.E(errors.Invalid, err, "read config", path)
	}
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || explicit[f.Name] || f.Name == "config" || !v.IsSet(f.Name) {
			return
		}
		value := fmt.Sprint(v.Get(f.Name))
		if e := fs.Set(f.Name, value); e != nil {
			err = errors.E(errors.Invalid, e, "config", path, "key", f.Name)
			return
		}
		log.Debug.Printf("%s: %s=%s", path, f.Name, value)
	})
	return err
}
