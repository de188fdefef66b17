package evidence

import (
	"fmt"
	"strings"
)

// Descriptor identifies the forensic target the remote service must process,
// e.g. a cloud disk (TargetID) in a project (ScopeID) and zone.
// It is a value type: pass it by value and never modify it after NewDescriptor.
type Descriptor struct {
	TargetID string `json:"target_id"`
	ScopeID  string `json:"scope_id"`
	Zone     string `json:"zone"`
}

func NewDescriptor(targetId, scopeId, zone string) (Descriptor, error) {
	d := Descriptor{
		TargetID: targetId,
		ScopeID:  scopeId,
		Zone:     zone,
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func (d Descriptor) Validate() error {
	var missing []string
	if d.TargetID == "" {
		missing = append(missing, "target_id")
	}
	if d.ScopeID == "" {
		missing = append(missing, "scope_id")
	}
	if d.Zone == "" {
		missing = append(missing, "zone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("evidence descriptor is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Label returns the timeline label shared by every artifact collected for this evidence
func (d Descriptor) Label() string {
	return fmt.Sprintf("%s-%s", d.ScopeID, d.TargetID)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s/%s", d.ScopeID, d.Zone, d.TargetID)
}
