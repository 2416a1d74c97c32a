/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/fvoperator/InputParameters"
	"github.com/notargets/fvoperator/assembler"
	"github.com/notargets/fvoperator/bc"
	"github.com/notargets/fvoperator/field"
	"github.com/notargets/fvoperator/formula"
	"github.com/notargets/fvoperator/gradient"
	"github.com/notargets/fvoperator/mesh"
	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

type AssembleRun struct {
	ParameterFile string
	Output        string
	Workers       int
	Profile       bool
}

const exampleFile = `
########################################
Title: "Channel"
Box: {NX: 8, NY: 4, NZ: 4, LX: 2., LY: 1., LZ: 1.}
# MeshFile: channel.su2
Formula: Advection # Identity, Gradient or Advection
GradientVariable: Density
GradientAxis: -1
Reference: [1., 0.5, 0., 0., 0.714285714]
DerivedVariables: false
BCs:
  xmin: inflow
  xmax: outflow
  ymin: slip
  ymax: slip
  zmin: wall
  zmax: far
Workers: 4
########################################
`

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the sparse matrix of a formula and write it in MatrixMarket format",
	Long:  `Assemble the sparse matrix of a formula and write it in MatrixMarket format`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ar = &AssembleRun{}
			ip *InputParameters.OperatorParameters
		)
		if ar.ParameterFile, err = cmd.Flags().GetString("inputParametersFile"); err != nil {
			return
		}
		ar.Output = viper.GetString("output")
		ar.Workers = viper.GetInt("workers")
		ar.Profile, _ = cmd.Flags().GetBool("profile")
		if ip, err = processInput(ar); err != nil {
			return
		}
		if ar.Profile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
		}
		ip.Print(cmd.OutOrStdout())
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return RunAssemble(ctx, ip, logger)
	},
}

func init() {
	rootCmd.AddCommand(AssembleCmd)
	AssembleCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for the mesh, formula and boundary conditions")
	AssembleCmd.Flags().StringP("output", "o", "", "MatrixMarket file to write, overrides Output in the parameters file")
	AssembleCmd.Flags().IntP("workers", "w", 0, "number of assembly ranks, overrides Workers in the parameters file")
	AssembleCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
	_ = viper.BindPFlag("output", AssembleCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("workers", AssembleCmd.Flags().Lookup("workers"))
}

func processInput(ar *AssembleRun) (ip *InputParameters.OperatorParameters, err error) {
	if len(ar.ParameterFile) == 0 {
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputParametersFile) like:%s", exampleFile)
	}
	var data []byte
	if data, err = os.ReadFile(ar.ParameterFile); err != nil {
		return
	}
	ip = InputParameters.NewOperatorParameters()
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", ar.ParameterFile, err)
	}
	if len(ar.Output) != 0 {
		ip.Output = ar.Output
	}
	if ar.Workers > 0 {
		ip.Workers = ar.Workers
	}
	if err = ip.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ar.ParameterFile, err)
	}
	return
}

// RunAssemble builds the operator described by ip and writes it to ip.Output
func RunAssemble(ctx context.Context, ip *InputParameters.OperatorParameters, logger *zap.Logger) (err error) {
	var A *utils.CSR
	if A, err = BuildOperator(ctx, ip, logger); err != nil {
		return
	}
	if len(ip.Output) == 0 {
		return
	}
	var f *os.File
	if f, err = os.Create(ip.Output); err != nil {
		return
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err = A.WriteMatrixMarket(f); err != nil {
		return
	}
	logger.Info("wrote operator", zap.String("file", ip.Output))
	logger.Debug("memory", zap.String("usage", utils.GetMemUsage()))
	return
}

func BuildOperator(ctx context.Context, ip *InputParameters.OperatorParameters, logger *zap.Logger) (A *utils.CSR, err error) {
	var m *mesh.Mesh
	if ip.Box != nil {
		m, err = mesh.NewBoxMesh(ip.Box.NX, ip.Box.NY, ip.Box.NZ, ip.Box.LX, ip.Box.LY, ip.Box.LZ)
	} else {
		m, err = mesh.ReadMeshFile(ip.MeshFile)
	}
	if err != nil {
		return
	}
	logger.Info("mesh ready", zap.String("stats", m.Statistics()))

	var (
		nCell    = m.NumCells()
		ref      = field.Uniform(nCell, ip.Reference)
		probeRef field.Field
		target   formula.Formula
	)
	if ip.DerivedVariables {
		var withDerived *field.Dense
		if withDerived, err = field.WithDerived(ref, ip.Gamma, true); err != nil {
			return
		}
		probeRef = withDerived
	}

	ft, _ := ip.FormulaType()
	switch ft {
	case InputParameters.FORMULA_IDENTITY:
		target = formula.Identity{NVal: ip.NumVariables}
	default:
		var (
			set     *bc.Set
			stencil *gradient.Stencil
		)
		if set, err = boundaryConditions(m, ip.BCs); err != nil {
			return
		}
		if stencil, err = gradient.New(m, set); err != nil {
			return
		}
		if ft == InputParameters.FORMULA_GRADIENT {
			fv, _ := types.NewFlowVariable(ip.GradientVariable)
			if !fv.IsPrimitive() && probeRef == nil {
				return nil, fmt.Errorf("gradient of %s needs DerivedVariables", fv)
			}
			if target, err = formula.NewGradient(stencil, int(fv), ip.GradientAxis); err != nil {
				return
			}
		} else {
			target = formula.FrozenAdvection{Stencil: stencil, Reference: ref, NVal: ip.NumVariables}
		}
	}

	return assembler.RunWorkers(ctx, ip.Workers, func(exec assembler.ExecutionContext) (*assembler.Assembler, error) {
		return assembler.New(target, nCell, ip.NumVariables, probeRef, exec,
			assembler.WithLogger(logger), assembler.WithGamma(ip.Gamma))
	})
}

// boundaryConditions matches the mesh boundary tags to the BC types by name
func boundaryConditions(m *mesh.Mesh, bcs map[string]string) (set *bc.Set, err error) {
	var (
		flags   = make(map[int]types.BCFLAG)
		missing []string
	)
	for marker, tag := range m.BoundaryTags {
		name, ok := bcs[tag]
		if !ok {
			missing = append(missing, tag)
			continue
		}
		if flags[marker], err = types.NewBCFLAG(name); err != nil {
			return
		}
	}
	if len(missing) != 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: no boundary condition given for %s",
			bc.ErrUnknownMarker, strings.Join(missing, ", "))
	}
	return bc.NewSet(flags, m)
}
