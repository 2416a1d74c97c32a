package InputParameters

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/fvoperator/field"
	"github.com/notargets/fvoperator/types"
)

type FormulaType uint8

const (
	FORMULA_IDENTITY FormulaType = iota
	FORMULA_GRADIENT
	FORMULA_ADVECTION
)

var FormulaNameMap = map[string]FormulaType{
	"identity":  FORMULA_IDENTITY,
	"gradient":  FORMULA_GRADIENT,
	"advection": FORMULA_ADVECTION,
}

func (ft FormulaType) String() string {
	return [...]string{"Identity", "Gradient", "Advection"}[ft]
}

func NewFormulaType(label string) (ft FormulaType, err error) {
	var ok bool
	if ft, ok = FormulaNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use formula named %s", label)
	}
	return
}

// BoxParameters describe a generated hexahedral box mesh
type BoxParameters struct {
	NX, NY, NZ int
	LX, LY, LZ float64
}

// Parameters obtained from the YAML input file. ghodss/yaml decodes through
// encoding/json, so the keys are matched by the json tags.
type OperatorParameters struct {
	Title            string            `json:"Title"`
	MeshFile         string            `json:"MeshFile"` // SU2 mesh, used when Box is absent
	Box              *BoxParameters    `json:"Box"`
	Formula          string            `json:"Formula"`
	GradientVariable string            `json:"GradientVariable"`
	GradientAxis     int               `json:"GradientAxis"` // -1 for all three components
	NumVariables     int               `json:"NumVariables"`
	Gamma            float64           `json:"Gamma"`
	Reference        []float64         `json:"Reference"`        // Uniform primitive reference state
	DerivedVariables bool              `json:"DerivedVariables"` // Linearize energy and temperature about Reference
	BCs              map[string]string `json:"BCs"`              // Boundary tag to BC type
	Workers          int               `json:"Workers"`
	Output           string            `json:"Output"` // MatrixMarket file
}

func NewOperatorParameters() *OperatorParameters {
	return &OperatorParameters{
		Formula:          "identity",
		GradientVariable: "Density",
		NumVariables:     types.NumPrimitive,
		Gamma:            field.DefaultGamma,
		Reference:        []float64{1, 0, 0, 0, 1 / field.DefaultGamma},
		BCs:              map[string]string{},
		Workers:          1,
	}
}

func (ip *OperatorParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *OperatorParameters) Validate() (err error) {
	if ip.Box == nil && len(ip.MeshFile) == 0 {
		return fmt.Errorf("must supply a MeshFile or a Box")
	}
	if ip.Box != nil {
		if ip.Box.NX < 1 || ip.Box.NY < 1 || ip.Box.NZ < 1 {
			return fmt.Errorf("box cell counts must be positive, have %d x %d x %d",
				ip.Box.NX, ip.Box.NY, ip.Box.NZ)
		}
	}
	if _, err = ip.FormulaType(); err != nil {
		return
	}
	if _, err = types.NewFlowVariable(ip.GradientVariable); err != nil {
		return
	}
	if ip.GradientAxis < -1 || ip.GradientAxis > 2 {
		return fmt.Errorf("gradient axis must be -1, 0, 1 or 2, have %d", ip.GradientAxis)
	}
	if len(ip.Reference) != types.NumPrimitive {
		return fmt.Errorf("reference state needs %d primitive values, have %d",
			types.NumPrimitive, len(ip.Reference))
	}
	if ip.Gamma <= 1 {
		return fmt.Errorf("gamma must exceed 1, have %g", ip.Gamma)
	}
	if ip.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, have %d", ip.Workers)
	}
	for tag, name := range ip.BCs {
		if _, err = types.NewBCFLAG(name); err != nil {
			return fmt.Errorf("boundary %s: %w", tag, err)
		}
	}
	return
}

func (ip *OperatorParameters) FormulaType() (FormulaType, error) { return NewFormulaType(ip.Formula) }

func (ip *OperatorParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	if ip.Box != nil {
		fmt.Fprintf(w, "[%d x %d x %d]\t\t= Box Cells\n", ip.Box.NX, ip.Box.NY, ip.Box.NZ)
		fmt.Fprintf(w, "[%g x %g x %g]\t= Box Size\n", ip.Box.LX, ip.Box.LY, ip.Box.LZ)
	} else {
		fmt.Fprintf(w, "[%s]\t\t= Mesh File\n", ip.MeshFile)
	}
	fmt.Fprintf(w, "[%s]\t\t= Formula\n", ip.Formula)
	if ft, _ := ip.FormulaType(); ft == FORMULA_GRADIENT {
		fmt.Fprintf(w, "[%s, %d]\t\t= Gradient Variable, Axis\n", ip.GradientVariable, ip.GradientAxis)
	}
	fmt.Fprintf(w, "[%d]\t\t\t= Variables\n", ip.NumVariables)
	fmt.Fprintf(w, "%8.5f\t\t= Gamma\n", ip.Gamma)
	fmt.Fprintf(w, "%v\t= Reference\n", ip.Reference)
	fmt.Fprintf(w, "[%d]\t\t\t= Workers\n", ip.Workers)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
