package testwriter

import (
	"fmt"
	"strings"
)

// Depends records which optional capabilities the cases of one file use.
// Flags only ever go from false to true. Once sealed, a change is refused
// and remembered as a violation; re-setting a flag that is already set is
// harmless.
type Depends struct {
	failure           bool
	authFailure       bool
	validateResponses bool
	multipart         bool
	server            bool
	apiKey            bool
	httpBasic         bool
	httpBearer        bool
	trustServer       bool

	sealed     bool
	violations []string
}

// NewDepends starts an empty tracker carrying the two configuration flags.
func NewDepends(validateResponses, trustServer bool) *Depends {
	return &Depends{validateResponses: validateResponses, trustServer: trustServer}
}

func (d *Depends) set(flag *bool, name string) {
	if *flag {
		return
	}
	if d.sealed {
		d.violations = append(d.violations, name)
		return
	}
	*flag = true
}

func (d *Depends) SetFailure()     { d.set(&d.failure, "dependsFailure") }
func (d *Depends) SetAuthFailure() { d.set(&d.authFailure, "dependsAuthFailure") }
func (d *Depends) SetMultipart()   { d.set(&d.multipart, "dependsMultipart") }
func (d *Depends) SetServer()      { d.set(&d.server, "dependsServer") }
func (d *Depends) SetAPIKey()      { d.set(&d.apiKey, "dependsApiKey") }
func (d *Depends) SetHTTPBasic()   { d.set(&d.httpBasic, "dependsHttpBasic") }
func (d *Depends) SetHTTPBearer()  { d.set(&d.httpBearer, "dependsHttpBearer") }

func (d *Depends) Failure() bool           { return d.failure }
func (d *Depends) AuthFailure() bool       { return d.authFailure }
func (d *Depends) ValidateResponses() bool { return d.validateResponses }
func (d *Depends) Multipart() bool         { return d.multipart }
func (d *Depends) Server() bool            { return d.server }
func (d *Depends) APIKey() bool            { return d.apiKey }
func (d *Depends) HTTPBasic() bool         { return d.httpBasic }
func (d *Depends) HTTPBearer() bool        { return d.httpBearer }
func (d *Depends) TrustServer() bool       { return d.trustServer }

// Seal freezes the tracker; declarations are about to be written from it.
func (d *Depends) Seal() { d.sealed = true }

// Sealed reports whether Seal was called.
func (d *Depends) Sealed() bool { return d.sealed }

// Err reports changes attempted after Seal. A non-nil result means the
// emission pass needed a capability the scan pass never saw.
func (d *Depends) Err() error {
	if len(d.violations) == 0 {
		return nil
	}
	return fmt.Errorf("dependency flags changed after declarations were written: %s", strings.Join(d.violations, ", "))
}

// Flags lists the names of the flags that are set, in declaration order.
func (d *Depends) Flags() []string {
	all := []struct {
		name string
		on   bool
	}{
		{"dependsFailure", d.failure},
		{"dependsAuthFailure", d.authFailure},
		{"validateResponses", d.validateResponses},
		{"dependsMultipart", d.multipart},
		{"dependsServer", d.server},
		{"dependsApiKey", d.apiKey},
		{"dependsHttpBasic", d.httpBasic},
		{"dependsHttpBearer", d.httpBearer},
		{"trustServer", d.trustServer},
	}
	var out []string
	for _, f := range all {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}
