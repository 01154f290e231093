package compute

import (
	"fmt"
	"sort"
	"strings"
)

// Instance is one decoded VM record. Records are immutable values produced
// fresh on every listing; Region and Cell are derivations of Zone and
// Labels, never set independently.
type Instance struct {
	Name        string            `json:"name"`
	IP          string            `json:"ip"`
	Zone        string            `json:"zone"`
	Region      string            `json:"region"`
	MachineType string            `json:"machineType"`
	CPUPlatform string            `json:"cpuPlatform"`
	Status      string            `json:"status"`
	Labels      map[string]string `json:"labels,omitempty"`
	Cell        string            `json:"cell,omitempty"`
}

// DecodeInstance converts one raw aggregated-list element into an Instance.
// Any required field that is absent or mistyped fails the whole record;
// labels are optional and their values are coerced leniently.
func DecodeInstance(raw map[string]interface{}) (Instance, error) {
	name, err := requiredString(raw, "name")
	if err != nil {
		return Instance{}, err
	}
	if name == "" {
		return Instance{}, &MissingFieldError{Field: "name"}
	}

	ip, err := firstNetworkIP(raw)
	if err != nil {
		return Instance{}, err
	}

	zoneURL, err := requiredString(raw, "zone")
	if err != nil {
		return Instance{}, err
	}
	zone := lastSegment(zoneURL)
	if zone == "" {
		return Instance{}, &MissingFieldError{Field: "zone"}
	}

	machineTypeURL, err := requiredString(raw, "machineType")
	if err != nil {
		return Instance{}, err
	}
	machineType := lastSegment(machineTypeURL)
	if machineType == "" {
		return Instance{}, &MissingFieldError{Field: "machineType"}
	}

	cpuPlatform, err := requiredString(raw, "cpuPlatform")
	if err != nil {
		return Instance{}, err
	}

	status, err := requiredString(raw, "status")
	if err != nil {
		return Instance{}, err
	}

	inst := Instance{
		Name:        name,
		IP:          ip,
		Zone:        zone,
		Region:      regionFromZone(zone),
		MachineType: machineType,
		CPUPlatform: cpuPlatform,
		Status:      status,
	}

	if rawLabels, ok := raw["labels"].(map[string]interface{}); ok {
		labels := make(map[string]string, len(rawLabels))
		for k, v := range rawLabels {
			// Non-string label values become "" rather than failing the
			// record over a cosmetic field.
			s, _ := v.(string)
			labels[k] = s
		}
		inst.Labels = labels
		inst.Cell = labels["cell"]
	}

	return inst, nil
}

// String renders the instance for logs and debugging.
func (i Instance) String() string {
	keys := make([]string, 0, len(i.Labels))
	for k := range i.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+i.Labels[k])
	}

	return fmt.Sprintf("Name: %s IP: %s Zone: %s Machine Type: %s CPU Platform: %s Status: %s Labels: %s",
		i.Name, i.IP, i.Zone, i.MachineType, i.CPUPlatform, i.Status, strings.Join(pairs, ", "))
}

func requiredString(raw map[string]interface{}, field string) (string, error) {
	v, ok := raw[field]
	if !ok {
		return "", &MissingFieldError{Field: field}
	}
	s, ok := v.(string)
	if !ok {
		return "", &MissingFieldError{Field: field}
	}
	return s, nil
}

// firstNetworkIP extracts the primary private IP. Only the first network
// interface is consulted; additional interfaces are ignored.
func firstNetworkIP(raw map[string]interface{}) (string, error) {
	const field = "networkInterfaces[0].networkIP"

	ifaces, ok := raw["networkInterfaces"].([]interface{})
	if !ok || len(ifaces) == 0 {
		return "", &MissingFieldError{Field: field}
	}
	iface, ok := ifaces[0].(map[string]interface{})
	if !ok {
		return "", &MissingFieldError{Field: field}
	}
	ip, ok := iface["networkIP"].(string)
	if !ok || ip == "" {
		return "", &MissingFieldError{Field: field}
	}
	return ip, nil
}

// lastSegment returns the trailing path segment of a fully-qualified
// resource URL ("projects/123/zones/us-central1-a" -> "us-central1-a").
func lastSegment(s string) string {
	parts := strings.Split(s, "/")
	return parts[len(parts)-1]
}

// regionFromZone derives the region as the first two dash-separated tokens
// of the short zone name ("us-central1-a" -> "us-central1"). Zones with
// fewer tokens map to themselves.
func regionFromZone(zone string) string {
	parts := strings.SplitN(zone, "-", 3)
	if len(parts) < 2 {
		return zone
	}
	return parts[0] + "-" + parts[1]
}
