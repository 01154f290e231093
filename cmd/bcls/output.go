package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/bcls/bcls/pkg/compute"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeTable renders instances as an aligned table. The short form shows
// name and IP; long form adds placement and hardware columns.
func writeTable(w io.Writer, instances []compute.Instance, long bool) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	if long {
		fmt.Fprintln(tw, "NAME\tIP\tZONE\tREGION\tMACHINE TYPE\tCPU PLATFORM\tSTATUS\tCELL")
		for _, inst := range instances {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				inst.Name, inst.IP, inst.Zone, inst.Region,
				inst.MachineType, inst.CPUPlatform, inst.Status, inst.Cell)
		}
	} else {
		fmt.Fprintln(tw, "NAME\tIP")
		for _, inst := range instances {
			fmt.Fprintf(tw, "%s\t%s\n", inst.Name, inst.IP)
		}
	}

	return tw.Flush()
}

// writeIPs prints one IP per line, for piping into ssh loops and the like.
func writeIPs(w io.Writer, instances []compute.Instance) error {
	for _, inst := range instances {
		if _, err := fmt.Fprintln(w, inst.IP); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, instances []compute.Instance) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(instances)
}

func writeZones(w io.Writer, zones []string) error {
	for _, zone := range zones {
		if _, err := fmt.Fprintln(w, zone); err != nil {
			return err
		}
	}
	return nil
}
