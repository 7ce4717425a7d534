// Package nmnist decodes the 5-byte-per-record event format used by the
// N-MNIST and N-CALTECH101 neuromorphic datasets.
package nmnist
