package fem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadGambit2DFile reads a triangular Gambit neutral (.neu) file, each boundary
// condition set becomes a boundary attribute numbered in file order
func ReadGambit2DFile(filename string, verbose bool) (m *Mesh, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading Gambit Neutral file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		err = fmt.Errorf("unable to open file %s: %w", filename, err)
		return
	}
	defer file.Close()
	return ReadGambit2D(file, verbose)
}

func ReadGambit2D(r io.Reader, verbose bool) (m *Mesh, err error) {
	var (
		reader                  = &neuReader{bufio.NewReader(r), 0}
		skipLines               = reader.skipLines
		Nv, K, Nmats, Nbcs, Nsd int
		xmin, xmax, ymin, ymax  float64
	)
	// Skip first six lines
	if err = skipLines(6); err != nil {
		return
	}
	if Nv, K, Nmats, Nbcs, Nsd, err = reader.readHeader(); err != nil {
		return
	}
	if verbose {
		fmt.Printf("Nv = %d, K = %d\n", Nv, K)
		fmt.Printf("Nmats = %d, Nbcs = %d\n%d space dimensions\n", Nmats, Nbcs, Nsd)
	}
	if Nsd != 2 {
		err = fmt.Errorf("only two dimensional triangular meshes are supported, have %d space dimensions", Nsd)
		return
	}
	if err = skipLines(2); err != nil {
		return
	}
	m = &Mesh{}
	if m.VX, m.VY, err = reader.read2DVertices(Nv); err != nil {
		return
	}
	if err = skipLines(2); err != nil {
		return
	}
	if m.EToV, err = reader.readTris(K); err != nil {
		return
	}
	if err = skipLines(2); err != nil {
		return
	}
	for i := 0; i < Nmats; i++ {
		if err = reader.skipMaterialGroup(); err != nil {
			return
		}
		if err = skipLines(2); err != nil {
			return
		}
	}
	if m.Bdr, m.BdrNames, err = reader.readBCS(Nbcs, m.EToV); err != nil {
		return
	}
	if err = m.Orient(); err != nil {
		return
	}
	if verbose {
		xmin, xmax, ymin, ymax = m.BoundingBox()
		fmt.Printf("Bounding Box:\nXMin/XMax = %5.3f, %5.3f\nYMin/YMax = %5.3f, %5.3f\n",
			xmin, xmax, ymin, ymax)
		for i, name := range m.BdrNames {
			fmt.Printf("Boundary attribute %d = \"%s\"\n", i+1, name)
		}
	}
	return
}

type neuReader struct {
	*bufio.Reader
	lineNumber int
}

func (nr *neuReader) getLine() (line string, err error) {
	line, err = nr.ReadString('\n')
	nr.lineNumber++
	if err != nil {
		if err == io.EOF && len(line) != 0 {
			err = nil
		} else {
			if err == io.EOF {
				err = fmt.Errorf("early end of file at line %d", nr.lineNumber)
			}
			return
		}
	}
	line = strings.TrimRight(line, "\r\n")
	return
}

func (nr *neuReader) skipLines(n int) (err error) {
	for i := 0; i < n; i++ {
		if _, err = nr.getLine(); err != nil {
			return
		}
	}
	return
}

// ints parses the first n whitespace separated integers of the next line
func (nr *neuReader) ints(n int) (vals []int, line string, err error) {
	if line, err = nr.getLine(); err != nil {
		return
	}
	fields := strings.Fields(line)
	if len(fields) < n {
		err = fmt.Errorf("line %d: read fewer than %d values, line: %s", nr.lineNumber, n, line)
		return
	}
	vals = make([]int, n)
	for i := 0; i < n; i++ {
		if vals[i], err = strconv.Atoi(fields[i]); err != nil {
			err = fmt.Errorf("line %d: %w", nr.lineNumber, err)
			return
		}
	}
	return
}

func (nr *neuReader) readHeader() (Nv, K, Nmats, Nbcs, Nsd int, err error) {
	/*
		Nv      // num nodes in mesh
		K       // num elements
		Nmats   // num material groups
		Nbcs    // num boundary groups
		Nsd;    // num space dimensions
	*/
	var vals []int
	if vals, _, err = nr.ints(5); err != nil {
		return
	}
	Nv, K, Nmats, Nbcs, Nsd = vals[0], vals[1], vals[2], vals[3], vals[4]
	return
}

func (nr *neuReader) read2DVertices(Nv int) (VX, VY []float64, err error) {
	var (
		line string
	)
	VX, VY = make([]float64, Nv), make([]float64, Nv)
	for i := 0; i < Nv; i++ {
		if line, err = nr.getLine(); err != nil {
			return
		}
		var ind int
		fields := strings.Fields(line)
		if len(fields) < 3 {
			err = fmt.Errorf("line %d: vertex needs an index and two coordinates, line: %s", nr.lineNumber, line)
			return
		}
		if ind, err = strconv.Atoi(fields[0]); err != nil {
			return
		}
		if ind < 1 || ind > Nv {
			err = fmt.Errorf("line %d: vertex index %d out of range", nr.lineNumber, ind)
			return
		}
		if VX[ind-1], err = strconv.ParseFloat(fields[1], 64); err != nil {
			return
		}
		if VY[ind-1], err = strconv.ParseFloat(fields[2], 64); err != nil {
			return
		}
	}
	return
}

func (nr *neuReader) readTris(K int) (EToV [][3]int, err error) {
	//-------------------------------------
	// ENDOFSECTION
	//    ELEMENTS/CELLS 1.3.0
	//      1  3  3        1       2       3
	//      2  3  3        3       2       4
	//-------------------------------------
	var (
		vals []int
	)
	EToV = make([][3]int, K)
	for i := 0; i < K; i++ {
		if vals, _, err = nr.ints(6); err != nil {
			return
		}
		ind := vals[0]
		if ind < 1 || ind > K {
			err = fmt.Errorf("line %d: element index %d out of range", nr.lineNumber, ind)
			return
		}
		if vals[2] != 3 {
			err = fmt.Errorf("line %d: element %d has %d nodes, only triangles are supported", nr.lineNumber, ind, vals[2])
			return
		}
		EToV[ind-1] = [3]int{vals[3] - 1, vals[4] - 1, vals[5] - 1}
	}
	return
}

func (nr *neuReader) skipMaterialGroup() (err error) {
	/*
	   GROUP:           1 ELEMENTS:        977 MATERIAL:      1.000 NFLAGS:          0
	                     epsilon: 1.000
	          0
	*/
	var (
		line        string
		gn, elnum   int
		matval      float64
		n, numLines int
	)
	if line, err = nr.getLine(); err != nil {
		return
	}
	if n, err = fmt.Sscanf(line, "GROUP: %d ELEMENTS: %d MATERIAL: %f", &gn, &elnum, &matval); err != nil || n < 3 {
		err = fmt.Errorf("line %d: unable to read material group header: %v, line: %s", nr.lineNumber, err, line)
		return
	}
	if err = nr.skipLines(2); err != nil {
		return
	}
	numLines = elnum / 10
	if elnum%10 != 0 {
		numLines++
	}
	return nr.skipLines(numLines)
}

func (nr *neuReader) readBCS(Nbcs int, EToV [][3]int) (Bdr []BdrEdge, names []string, err error) {
	var (
		line string
		vals []int
	)
	names = make([]string, Nbcs)
	for i := 0; i < Nbcs; i++ {
		if i != 0 {
			if err = nr.skipLines(1); err != nil {
				return
			}
		}
		if line, err = nr.getLine(); err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			err = fmt.Errorf("line %d: unable to read boundary condition header, line: %s", nr.lineNumber, line)
			return
		}
		var numfaces int
		if numfaces, err = strconv.Atoi(fields[2]); err != nil {
			return
		}
		names[i] = strings.ToLower(fields[0])
		for f := 0; f < numfaces; f++ {
			if vals, _, err = nr.ints(3); err != nil {
				return
			}
			k, faceNumber := vals[0]-1, vals[2]
			if k < 0 || k >= len(EToV) {
				err = fmt.Errorf("line %d: boundary face references element %d", nr.lineNumber, vals[0])
				return
			}
			tri := EToV[k]
			var e BdrEdge
			switch faceNumber {
			case 1:
				e.V = [2]int{tri[0], tri[1]}
			case 2:
				e.V = [2]int{tri[1], tri[2]}
			case 3:
				e.V = [2]int{tri[2], tri[0]}
			default:
				err = fmt.Errorf("line %d: face number %d invalid for a triangle", nr.lineNumber, faceNumber)
				return
			}
			e.Elem, e.Attr = k, i+1
			Bdr = append(Bdr, e)
		}
		if err = nr.skipLines(1); err != nil {
			return
		}
	}
	return
}
