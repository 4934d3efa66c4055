package adjoint

// Store owns every per-node adjoint array. All buffers are allocated
// once at construction and reused across iterations; the residual
// drivers and boundary handlers never allocate inside the node loops.
type Store struct {
	NNodes, NVar, NDim int

	Solution       []float64 // Psi, nNodes x nVar
	SolutionOld    []float64
	SolutionTimeN  []float64 // dual time stepping
	SolutionTimeN1 []float64

	ResConv    []float64
	ResVisc    []float64
	ResSour    []float64
	TruncError []float64

	UndLapl []float64 // undivided Laplacian of Psi
	Sensor  []float64 // adjoint dissipation switch

	ForceProj       []float64 // d vector, nNodes x nDim, wall nodes
	IntBoundaryJump []float64 // nearfield jump, nNodes x nVar
	ObjFuncSource   []float64 // discrete adjoint rhs, nNodes x nVar

	// TimeSpectralSource is nil unless a time-spectral coupling sets it,
	// nNodes x nVar when present.
	TimeSpectralSource []float64

	Grad    []float64 // Green-Gauss gradient of Psi, nNodes x nVar x nDim
	AuxVar  []float64 // conspsi scalar for the surface sensitivity
	AuxGrad []float64 // surface gradient of AuxVar, nNodes x nDim

	// Residual norms, per variable
	ResRMS, ResMax []float64
	ResMaxPoint    []int
}

func NewStore(nNodes, nVar, nDim int) (s *Store) {
	s = &Store{
		NNodes:          nNodes,
		NVar:            nVar,
		NDim:            nDim,
		Solution:        make([]float64, nNodes*nVar),
		SolutionOld:     make([]float64, nNodes*nVar),
		SolutionTimeN:   make([]float64, nNodes*nVar),
		SolutionTimeN1:  make([]float64, nNodes*nVar),
		ResConv:         make([]float64, nNodes*nVar),
		ResVisc:         make([]float64, nNodes*nVar),
		ResSour:         make([]float64, nNodes*nVar),
		TruncError:      make([]float64, nNodes*nVar),
		UndLapl:         make([]float64, nNodes*nVar),
		Sensor:          make([]float64, nNodes),
		ForceProj:       make([]float64, nNodes*nDim),
		IntBoundaryJump: make([]float64, nNodes*nVar),
		ObjFuncSource:   make([]float64, nNodes*nVar),
		Grad:            make([]float64, nNodes*nVar*nDim),
		AuxVar:          make([]float64, nNodes),
		AuxGrad:         make([]float64, nNodes*nDim),
		ResRMS:          make([]float64, nVar),
		ResMax:          make([]float64, nVar),
		ResMaxPoint:     make([]int, nVar),
	}
	return
}

// Psi returns the adjoint vector at node i (aliased).
func (s *Store) Psi(i int) []float64 { return s.Solution[i*s.NVar : (i+1)*s.NVar] }

func (s *Store) PsiOld(i int) []float64 { return s.SolutionOld[i*s.NVar : (i+1)*s.NVar] }

func (s *Store) D(i int) []float64 { return s.ForceProj[i*s.NDim : (i+1)*s.NDim] }

func (s *Store) Jump(i int) []float64 {
	return s.IntBoundaryJump[i*s.NVar : (i+1)*s.NVar]
}

func (s *Store) SetSolutionOld() { copy(s.SolutionOld, s.Solution) }

// PushTimeLevels rotates Solution -> TimeN -> TimeN1 at the end of a
// physical time step.
func (s *Store) PushTimeLevels() {
	copy(s.SolutionTimeN1, s.SolutionTimeN)
	copy(s.SolutionTimeN, s.Solution)
}

func (s *Store) addTo(buf []float64, i int, res []float64) {
	for iVar := 0; iVar < s.NVar; iVar++ {
		buf[i*s.NVar+iVar] += res[iVar]
	}
}

func (s *Store) subFrom(buf []float64, i int, res []float64) {
	for iVar := 0; iVar < s.NVar; iVar++ {
		buf[i*s.NVar+iVar] -= res[iVar]
	}
}

func (s *Store) AddConv(i int, res []float64) { s.addTo(s.ResConv, i, res) }
func (s *Store) SubConv(i int, res []float64) { s.subFrom(s.ResConv, i, res) }
func (s *Store) AddVisc(i int, res []float64) { s.addTo(s.ResVisc, i, res) }
func (s *Store) SubVisc(i int, res []float64) { s.subFrom(s.ResVisc, i, res) }
func (s *Store) AddSour(i int, res []float64) { s.addTo(s.ResSour, i, res) }
func (s *Store) SubSour(i int, res []float64) { s.subFrom(s.ResSour, i, res) }

// ZeroRow clears every residual component of one node, the strong BC
// preamble.
func (s *Store) ZeroRow(i int) {
	for iVar := 0; iVar < s.NVar; iVar++ {
		s.ResConv[i*s.NVar+iVar] = 0
		s.ResVisc[i*s.NVar+iVar] = 0
		s.ResSour[i*s.NVar+iVar] = 0
		s.TruncError[i*s.NVar+iVar] = 0
	}
}

// Residual returns the summed residual of variable iVar at node i.
func (s *Store) Residual(i, iVar int) float64 {
	k := i*s.NVar + iVar
	return s.ResConv[k] + s.ResVisc[k] + s.ResSour[k] + s.TruncError[k]
}

func (s *Store) ZeroResiduals() {
	for k := range s.ResConv {
		s.ResConv[k] = 0
		s.ResVisc[k] = 0
		s.ResSour[k] = 0
	}
}

func (s *Store) ResetNorms() {
	for iVar := 0; iVar < s.NVar; iVar++ {
		s.ResRMS[iVar] = 0
		s.ResMax[iVar] = 0
		s.ResMaxPoint[iVar] = 0
	}
}

func (s *Store) TrackResidual(i, iVar int, res float64) {
	s.ResRMS[iVar] += res * res
	if res < 0 {
		res = -res
	}
	if res > s.ResMax[iVar] {
		s.ResMax[iVar] = res
		s.ResMaxPoint[iVar] = i
	}
}
