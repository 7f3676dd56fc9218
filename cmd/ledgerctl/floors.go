package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"textile-backend/internal/floor"
)

var linkingTypes = []floor.LinkingType{floor.AutoLinking, floor.RossoLinking, floor.HandLinking}

type floorStep struct {
	Key        floor.Floor `yaml:"key"`
	Label      string      `yaml:"label"`
	Inspection bool        `yaml:"inspection,omitempty"`
}

type route struct {
	LinkingType floor.LinkingType `yaml:"linkingType"`
	Floors      []floorStep       `yaml:"floors"`
}

func newFloorsCmd() *cobra.Command {
	var lt string
	cmd := &cobra.Command{
		Use:   "floors",
		Short: "Print the floor sequence of each linking type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(); err != nil {
				return err
			}
			routes, err := buildRoutes(lt)
			if err != nil {
				return err
			}
			return writeRoutes(cmd.OutOrStdout(), routes)
		},
	}
	cmd.Flags().StringVarP(&lt, "linking-type", "l", "", "Only this linking type (e.g. \"Hand Linking\")")
	return cmd
}

func buildRoutes(only string) ([]route, error) {
	types := linkingTypes
	if only != "" {
		lt, err := floor.ParseLinkingType(only)
		if err != nil {
			return nil, err
		}
		types = []floor.LinkingType{lt}
	}

	routes := make([]route, 0, len(types))
	for _, lt := range types {
		seq, err := floor.Sequence(lt)
		if err != nil {
			return nil, err
		}
		r := route{LinkingType: lt, Floors: make([]floorStep, len(seq))}
		for i, f := range seq {
			r.Floors[i] = floorStep{Key: f, Label: f.Label(), Inspection: f.IsInspection()}
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func writeRoutes(w io.Writer, routes []route) error {
	if output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(routes); err != nil {
			return err
		}
		return enc.Close()
	}
	for _, r := range routes {
		seq := make([]floor.Floor, len(r.Floors))
		for i, s := range r.Floors {
			seq[i] = s.Key
		}
		if _, err := fmt.Fprintf(w, "%-14s %s\n", r.LinkingType, floor.Describe(seq)); err != nil {
			return err
		}
	}
	return nil
}
