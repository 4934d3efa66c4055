package adjoint

import (
	"bufio"
	"fmt"
	"os"
)

// AdjointRestartName derives the adjoint restart filename from the flow
// restart filename: the last four characters (".dat") are replaced by
// the objective's suffix, so one flow solution carries one adjoint file
// per functional.
func AdjointRestartName(flowFileName string, obj Objective) string {
	if len(flowFileName) < 4 {
		panic(fmt.Errorf("flow restart filename %q too short", flowFileName))
	}
	return flowFileName[:len(flowFileName)-4] + obj.Suffix()
}

// ReadRestart loads the adjoint solution from the restart file paired
// with the flow restart. A missing or malformed file is fatal: a
// restart run without its adjoint state cannot continue.
func (sv *Solver) ReadRestart(flowFileName string) {
	var (
		fileName = AdjointRestartName(flowFileName, sv.Par.Objective)
		s        = sv.S
		nVar     = sv.NVar
	)
	fd, err := os.Open(fileName)
	if err != nil {
		panic(fmt.Errorf("unable to open adjoint restart file %s: %w", fileName, err))
	}
	defer fd.Close()
	scanner := bufio.NewScanner(fd)
	if !scanner.Scan() {
		panic(fmt.Errorf("adjoint restart file %s is empty", fileName))
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		var index int
		fields := make([]interface{}, nVar+1)
		vals := make([]float64, nVar)
		fields[0] = &index
		for iVar := 0; iVar < nVar; iVar++ {
			fields[iVar+1] = &vals[iVar]
		}
		if _, err = fmt.Sscan(line, fields...); err != nil {
			panic(fmt.Errorf("malformed line in %s: %q: %w", fileName, line, err))
		}
		copy(s.Psi(index), vals)
	}
	if err = scanner.Err(); err != nil {
		panic(err)
	}
	s.SetSolutionOld()
}

// WriteRestart stores the adjoint solution next to the flow restart.
func (sv *Solver) WriteRestart(flowFileName string) (err error) {
	var (
		fileName = AdjointRestartName(flowFileName, sv.Par.Objective)
		s        = sv.S
		nVar     = sv.NVar
	)
	fd, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("unable to create adjoint restart file %s: %w", fileName, err)
	}
	defer fd.Close()
	w := bufio.NewWriter(fd)
	fmt.Fprintf(w, "Adjoint solution, %s, %d variables\n",
		sv.Par.Objective.Print(), nVar)
	for iPoint := 0; iPoint < s.NNodes; iPoint++ {
		fmt.Fprintf(w, "%d", iPoint)
		for iVar := 0; iVar < nVar; iVar++ {
			fmt.Fprintf(w, " %22.15e", s.Solution[iPoint*nVar+iVar])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
