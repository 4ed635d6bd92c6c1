/*
Package pcstyle transfers the color style of one colored point cloud onto another.

This package reads and writes point clouds in the PLY format. The statistics
live in the style package and the transfer itself in the transfer package:

	input, _ := pcstyle.Open("input.ply")
	target, _ := pcstyle.Open("target.ply")
	si, _ := style.NewPointCloudExtractor(input, style.WithNormalsPCA(true)).ExtractStyle()
	st, _ := style.NewPointCloudExtractor(target, style.WithNormalsPCA(true)).ExtractStyle()
	colors, _ := transfer.New(si, st).Apply(transfer.MGD_N, 1, input)
	out, _ := input.WithColors(colors)
	_ = pcstyle.Save(out, "output.ply")
*/
package pcstyle

import "fmt"

type PCStyleVersion struct {
	Major, Minor, Patch uint
}

func (v PCStyleVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var Version = PCStyleVersion{0, 3, 0}
