package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/scene/reader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display scene statistics and the encoded BVH records.
func InspectScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return fmt.Errorf("inspect: missing scene file argument")
	}

	opts, err := bvhOptions(ctx)
	if err != nil {
		return err
	}

	sc, err := reader.ReadScene(ctx.Args().First(), opts)
	if err != nil {
		logger.Error(err)
		return err
	}

	nodes, err := bvh.Decode(sc.BvhData)
	if err != nil {
		return err
	}
	if err = bvh.ValidateLeaves(nodes, len(sc.Spheres)); err != nil {
		return err
	}

	logger.Noticef("scene statistics\n%s", sc.Stats())
	if !ctx.Bool("no-records") {
		logger.Noticef("BVH records\n%s", bvhTable(nodes))
	}
	return nil
}

func bvhTable(nodes []bvh.LinkedNode) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Id", "Leaf", "Object", "Hit", "Miss", "BBox"})
	for _, node := range nodes {
		table.Append([]string{
			fmt.Sprint(node.ID),
			fmt.Sprintf("%t", node.IsLeaf),
			fmt.Sprint(node.ObjectIndex),
			fmt.Sprint(node.HitID),
			fmt.Sprint(node.MissID),
			node.BBox.String(),
		})
	}
	table.Render()
	return buf.String()
}
