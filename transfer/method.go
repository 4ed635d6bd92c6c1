package transfer

import (
	"fmt"
	"strings"
)

// Method selects how input colors are mapped onto the target style.
type Method int

const (
	// IGD matches mean and std of every Lab channel independently
	IGD Method = iota
	// IGD_N is IGD with mean and std blended from the normal octants of a sample
	IGD_N
	// MGD applies the linear optimal transport between the Lab covariances
	MGD
	// MGD_N applies the linear optimal transport between the joint color and
	// normal covariances
	MGD_N
)

var Methods = []Method{IGD, IGD_N, MGD, MGD_N}

var method_names = map[Method]string{
	IGD:   "IGD",
	IGD_N: "IGD_N",
	MGD:   "MGD",
	MGD_N: "MGD_N",
}

func (m Method) String() string {
	if ans, ok := method_names[m]; ok {
		return ans
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// NeedsTransport is true for the methods that use a transport matrix.
func (m Method) NeedsTransport() bool { return m == MGD || m == MGD_N }

func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Method) UnmarshalText(text []byte) (err error) {
	*m, err = ParseMethod(string(text))
	return
}

// ParseMethod parses a method name, case insensitively and with - and _
// interchangeable.
func ParseMethod(name string) (Method, error) {
	q := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), "-", "_")
	for m, n := range method_names {
		if n == q {
			return m, nil
		}
	}
	return IGD, fmt.Errorf("unknown transfer method: %#v, must be one of IGD, IGD_N, MGD or MGD_N", name)
}
