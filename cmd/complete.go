package cmd

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/portfolio-chart/docs"
)

// Completion returns the shell completion tree of pfc: global flags, every
// registered command with its flags, and topic names.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command, len(commands)),
		Flags: flags(flag.CommandLine),
	}
	for _, e := range commands {
		f := flag.NewFlagSet(e.cmd.Name(), flag.ContinueOnError)
		e.cmd.SetFlags(f)
		root.Sub[e.cmd.Name()] = &complete.Command{Flags: flags(f)}
	}
	if topics, err := docs.GetAllTopics(); err == nil {
		root.Sub["topic"].Args = predict.Set(append(topics, docs.Readme, docs.All))
	}
	return root
}

func flags(f *flag.FlagSet) map[string]complete.Predictor {
	out := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		out[fl.Name] = predictor(fl)
	})
	return out
}

func predictor(fl *flag.Flag) complete.Predictor {
	if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch fl.Name {
	case "config":
		return predict.Files("*.yaml")
	case "c", "currency":
		return predict.Set{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD"}
	default:
		return predict.Something
	}
}
