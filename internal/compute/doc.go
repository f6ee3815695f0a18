// Package compute provides the scatter backends used by the depositers.
//
// A backend splits a particle range over workers and hands each worker a set
// of [mesh.Adder] targets for jx, jy and jz:
//
//   - serial: one worker, plain adds straight into the lattice
//   - atomic: many workers sharing the lattice through CAS adds
//   - reduce: many workers writing private partial meshes that are summed
//     into the lattice once all workers finish
//
// Small particle counts use the serial backend:
//
//	backend := compute.AutoSelect(n)
//	backend.Scatter(lattice, n, func(start, end int, jx, jy, jz mesh.Adder) { ... })
//
// Accumulate does the same for a single target mesh such as rho.
package compute
