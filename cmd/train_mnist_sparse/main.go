package main

import "flag"

import "github.com/jacobeverist/htmresearch/experiment"
import "github.com/jacobeverist/htmresearch/suite"

func main() {
	p := suite.DefaultParams()
	flag.Int64Var(&p.Seed, "seed", p.Seed, "random seed")
	flag.StringVar(&p.DataDir, "datadir", p.DataDir, "MNIST data directory")
	flag.StringVar(&p.Path, "path", p.Path, "output root directory")
	flag.StringVar(&p.Name, "name", p.Name, "experiment name")
	flag.BoolVar(&p.NoCUDA, "no-cuda", p.NoCUDA, "disable accelerator use")
	flag.IntVar(&p.Iterations, "iterations", p.Iterations, "training epochs")
	flag.IntVar(&p.BatchSize, "batch-size", p.BatchSize, "training batch size")
	flag.IntVar(&p.N, "n", p.N, "hidden layer width")
	flag.IntVar(&p.K, "k", p.K, "active units per sample")
	repetitions := flag.Int("repetitions", 1, "independent repetitions")
	flag.Bool("pgo", false, "collect a CPU profile into default.pgo (handled at startup)")
	flag.Parse()

	runner := suite.Runner{
		Params:      p,
		Repetitions: *repetitions,
		Experiment:  experiment.New(),
	}
	if err := runner.Run(); err != nil {
		panic(err.Error())
	}
}
