// Package sdfx exports stitched shells through the github.com/deadsy/sdfx
// CAD library: conversion to sdfx triangles, bounding boxes and binary STL
// files.
package sdfx

import (
	"fmt"

	"github.com/chazu/globoid/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// vec converts a point, applying scale.
func vec(p r3.Vec, scale float64) v3.Vec {
	return v3.Vec{X: p.X * scale, Y: p.Y * scale, Z: p.Z * scale}
}

// Triangles converts the shell faces to sdfx triangles. Every coordinate is
// multiplied by scale, e.g. 10 to write centimetre models as millimetres.
func Triangles(s kernel.Shell, scale float64) []*sdf.Triangle3 {
	faces := s.Triangles()
	out := make([]*sdf.Triangle3, len(faces))
	for i, f := range faces {
		out[i] = &sdf.Triangle3{vec(f[0], scale), vec(f[1], scale), vec(f[2], scale)}
	}
	return out
}

// BoundingBox returns the scaled shell bounds as an sdfx box.
func BoundingBox(s kernel.Shell, scale float64) sdf.Box3 {
	min, max := s.BoundingBox()
	return sdf.Box3{Min: vec(min, scale), Max: vec(max, scale)}
}

// SaveSTL writes the shell to path as a binary STL file.
func SaveSTL(path string, s kernel.Shell, scale float64) error {
	if !s.Closed() {
		return fmt.Errorf("sdfx: refusing to export an open shell: %w", kernel.ErrStitchIncomplete)
	}
	tris := Triangles(s, scale)
	if len(tris) == 0 {
		return fmt.Errorf("sdfx: shell has no faces")
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("sdfx: save %s: %w", path, err)
	}
	return nil
}

// ToMesh converts sdfx triangles to a flat-shaded mesh, taking each face
// normal from sdfx.
func ToMesh(triangles []*sdf.Triangle3, partName string) *kernel.Mesh {
	numVerts := len(triangles) * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		PartName: partName,
	}
}
