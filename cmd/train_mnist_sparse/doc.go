// Package main runs the sparse MNIST noise-robustness experiment: trains the
// sparse classifier for a configured number of epochs, then sweeps evaluation
// over eleven input noise levels and records the per-level metrics.
package main
