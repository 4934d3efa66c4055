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
	"bufio"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/AcademicHacker/SU2/InputParameters"
	"github.com/AcademicHacker/SU2/adjoint"
	"github.com/AcademicHacker/SU2/flow"
	"github.com/AcademicHacker/SU2/geometry"
)

type ModelAdjoint struct {
	MeshFile    string
	ICFile      string
	SurfaceFile string
	PrintFreq   int
}

// AdjointCmd represents the adjoint command
var AdjointCmd = &cobra.Command{
	Use:   "adjoint",
	Short: "Adjoint solver, reads a mesh and a converged flow restart, outputs sensitivities",
	Long: `Adjoint solver, reads a mesh and a converged flow restart, and iterates
the adjoint equations to convergence, then writes the adjoint restart and the
surface sensitivity distribution`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("adjoint called")
		ma := &ModelAdjoint{}
		if ma.MeshFile, err = cmd.Flags().GetString("meshFile"); err != nil {
			panic(err)
		}
		if ma.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		ma.SurfaceFile, _ = cmd.Flags().GetString("surfaceFile")
		ma.PrintFreq, _ = cmd.Flags().GetInt("printFrequency")
		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		ip := processAdjointInput(ma)
		RunAdjoint(ma, ip)
	},
}

func processAdjointInput(ma *ModelAdjoint) (ip *InputParameters.AdjointParameters) {
	var (
		err      error
		willExit bool
	)
	if len(ma.MeshFile) == 0 {
		err := fmt.Errorf("must supply a mesh file (-F, --meshFile) in SU2 dual-mesh format")
		fmt.Printf("error: %s\n", err.Error())
		willExit = true
	}
	if len(ma.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "NACA 0012 drag adjoint"
Objective: DRAG
Scheme: JST
TimeInt: EULER-IMPLICIT
CFL: 4.
Mach: 0.8
Alpha: 1.25
MaxIterations: 2000
ConvergenceTol: 1.e-8
FlowRestart: solution_flow.dat
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		willExit = true
	}
	if willExit {
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(ma.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.AdjointParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(AdjointCmd)
	AdjointCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in SU2 dual-mesh format")
	AdjointCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- CFL\n\t- Objective\n\t- FlowRestart")
	AdjointCmd.Flags().StringP("surfaceFile", "o", "surface_adjoint.csv", "output file for the surface sensitivity distribution")
	AdjointCmd.Flags().IntP("printFrequency", "p", 10, "iterations between residual table lines")
	AdjointCmd.Flags().Bool("profile", false, "generate a runtime profile of the solver")
}

// solverParams maps the YAML input onto the run controls, leaving the
// defaults in place for anything the file does not mention.
func solverParams(ip *InputParameters.AdjointParameters) (par adjoint.Params) {
	par = adjoint.DefaultParams()
	par.Objective = adjoint.NewObjective(ip.Objective)
	if len(ip.Scheme) != 0 {
		par.Scheme = adjoint.NewSpaceScheme(ip.Scheme)
	}
	if len(ip.TimeInt) != 0 {
		par.TimeInt = adjoint.NewTimeScheme(ip.TimeInt)
	}
	if ip.CFL != 0 {
		par.CFL = ip.CFL
	}
	if ip.Kappa2 != 0 {
		par.Kappa2 = ip.Kappa2
	}
	if ip.Kappa4 != 0 {
		par.Kappa4 = ip.Kappa4
	}
	if len(ip.LinearSolver) != 0 {
		par.LinSolver = adjoint.NewLinearSolverKind(ip.LinearSolver)
	}
	if len(ip.Preconditioner) != 0 {
		par.LinPrec = adjoint.NewPreconKind(ip.Preconditioner)
	}
	if ip.LinearTol != 0 {
		par.LinTol = ip.LinearTol
	}
	if ip.LinearIter != 0 {
		par.LinIter = ip.LinearIter
	}
	switch ip.DualTime {
	case "", "NONE":
		par.DualTime = adjoint.STEADY
	case "BDF1":
		par.DualTime = adjoint.DUAL_TIME_1ST
	case "BDF2":
		par.DualTime = adjoint.DUAL_TIME_2ND
	default:
		panic(fmt.Errorf("unknown dual time kind %q", ip.DualTime))
	}
	par.TimeStep = ip.TimeStep
	par.SensSmoothing = ip.SensSmoothing
	par.RatioDensity = ip.RatioDensity
	par.FreeSurfaceZero = ip.FreeSurfaceZero
	par.FreeSurfaceThickness = ip.FreeSurfaceThickness
	par.Froude = ip.Froude
	if len(ip.Inlets) != 0 {
		par.Inlets = make(map[string]adjoint.InletSpec)
		for tag, in := range ip.Inlets {
			par.Inlets[tag] = adjoint.InletSpec{
				Kind:    adjoint.NewInletKind(in.Kind),
				PTotal:  in.PTotal,
				TTotal:  in.TTotal,
				FlowDir: in.FlowDir,
				Density: in.Density,
				VelMag:  in.VelMag,
			}
		}
	}
	if len(ip.Outlets) != 0 {
		par.Outlets = make(map[string]adjoint.OutletSpec)
		for tag, out := range ip.Outlets {
			par.Outlets[tag] = adjoint.OutletSpec{PExit: out.PExit}
		}
	}
	if len(ip.Nozzles) != 0 {
		par.Nozzles = make(map[string]adjoint.NozzleSpec)
		for tag, nz := range ip.Nozzles {
			par.Nozzles[tag] = adjoint.NozzleSpec{PTotal: nz.PTotal, TTotal: nz.TTotal}
		}
	}
	return
}

func RunAdjoint(ma *ModelAdjoint, ip *InputParameters.AdjointParameters) {
	var (
		err  error
		msh  = geometry.ReadMeshFile(ma.MeshFile)
		phys = flow.NewPhysics()
		mode = flow.Mode{
			Incompressible:  ip.Incompressible,
			Viscous:         ip.Viscous,
			Axisymmetric:    ip.Axisymmetric,
			RotatingFrame:   ip.RotatingFrame,
			DiscreteAdjoint: ip.DiscreteAdjoint,
		}
	)
	if ip.Gamma != 0 {
		phys.Gamma = ip.Gamma
	}
	fs := flow.NewFreeStream(phys, msh.NDim, ip.Mach, ip.Alpha, ip.Beta)
	fs.WeightCd = ip.WeightCd

	fld := flow.NewField(msh, phys, mode, fs)
	if len(ip.FlowRestart) == 0 {
		fmt.Println("error: FlowRestart must name the converged flow solution file")
		os.Exit(1)
	}
	if err = fld.ReadRestart(ip.FlowRestart); err != nil {
		panic(err)
	}
	fld.ComputeGradients()

	par := solverParams(ip)
	sv := adjoint.NewSolver(fld, par)
	if ip.Restart {
		sv.ReadRestart(ip.FlowRestart)
	}

	sv.SetForceProjVector(adjoint.ForceCoefficients{
		Cd: ip.Cd, Cl: ip.Cl, Ct: ip.Ct, Cq: ip.Cq,
	})
	switch par.Objective {
	case adjoint.EQUIVALENT_AREA, adjoint.NEARFIELD_PRESSURE:
		sv.SetIntBoundaryJump()
	}

	fmt.Printf("Begin adjoint iterations, %s, objective %s\n",
		mode, par.Objective.Print())
	maxIter := ip.MaxIterations
	if maxIter == 0 {
		maxIter = 1000
	}
	for iter := 0; iter < maxIter; iter++ {
		rms := sv.Iterate()
		if ma.PrintFreq > 0 && iter%ma.PrintFreq == 0 {
			sv.PrintUpdate(iter)
		}
		if ip.ConvergenceTol > 0 && rms < ip.ConvergenceTol {
			fmt.Printf("Converged at iteration %d, rms %12.6e\n", iter, rms)
			break
		}
	}

	sv.InviscidSensitivity()
	if mode.Viscous {
		sv.ViscousSensitivity()
	}
	if par.SensSmoothing {
		sv.SmoothSensitivity()
	}
	fmt.Printf("Total geometry sens %12.6e, Mach sens %12.6e, AoA sens %12.6e\n",
		sv.TotalSensGeo, sv.TotalSensMach, sv.TotalSensAoA)

	if err = sv.WriteRestart(ip.FlowRestart); err != nil {
		panic(err)
	}
	if err = writeSurfaceSensitivity(ma.SurfaceFile, sv); err != nil {
		panic(err)
	}
}

// writeSurfaceSensitivity dumps the per-vertex shape sensitivity of the
// monitored markers as CSV, one row per boundary node.
func writeSurfaceSensitivity(fileName string, sv *adjoint.Solver) (err error) {
	var (
		file *os.File
		msh  = sv.Msh
	)
	if file, err = os.Create(fileName); err != nil {
		return
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "marker,node")
	coordNames := []string{"x", "y", "z"}
	for iDim := 0; iDim < msh.NDim; iDim++ {
		fmt.Fprintf(w, ",%s", coordNames[iDim])
	}
	fmt.Fprintf(w, ",sensitivity\n")
	for im, m := range msh.Markers {
		if !m.Monitored {
			continue
		}
		for iv, v := range m.Vertices {
			fmt.Fprintf(w, "%s,%d", m.Tag, v.Node)
			for iDim := 0; iDim < msh.NDim; iDim++ {
				fmt.Fprintf(w, ",%22.15e", msh.Nodes[v.Node].Coord[iDim])
			}
			fmt.Fprintf(w, ",%22.15e\n", sv.CSensitivity[im][iv])
		}
	}
	return w.Flush()
}
