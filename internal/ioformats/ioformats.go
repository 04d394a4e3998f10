// Package ioformats implements the five external file formats the driver
// reads: the little-endian .bin vector format, the filter and
// query-filter CSVs, the .ivecs ground-truth format, and the L_search
// list argument. It is an external collaborator to the B-WST core: none
// of internal/tree, internal/query, or internal/bwst import it.
package ioformats

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/arcwave-labs/rfann/pkg/rferrors"
)

// ReadBin reads the little-endian vector file format:
// uint32 n, uint32 d, float32[n*d] row-major.
func ReadBin(path string) (vectors []float32, n, dim int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, rferrors.New(rferrors.IOOpen, "open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var nRaw, dRaw uint32
	if err := binary.Read(r, binary.LittleEndian, &nRaw); err != nil {
		return nil, 0, 0, rferrors.New(rferrors.IOOpen, "%s: read n: %w", path, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dRaw); err != nil {
		return nil, 0, 0, rferrors.New(rferrors.IOOpen, "%s: read d: %w", path, err)
	}
	n, dim = int(nRaw), int(dRaw)

	vectors = make([]float32, n*dim)
	bits := make([]uint32, n*dim)
	if err := binary.Read(r, binary.LittleEndian, bits); err != nil {
		return nil, 0, 0, rferrors.New(rferrors.IOOpen, "%s: truncated vector data: %w", path, err)
	}
	for i, b := range bits {
		vectors[i] = math.Float32frombits(b)
	}
	return vectors, n, dim, nil
}

// ReadFilterCSV reads one float per line. A line with extra tokens is
// fatal, per the Parse error kind.
func ReadFilterCSV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rferrors.New(rferrors.IOOpen, "open %s: %w", path, err)
	}
	defer f.Close()

	var out []float32
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.ContainsAny(text, " \t,") {
			return nil, rferrors.NewAtLine(rferrors.Parse, line, "unexpected extra token in %s", path)
		}
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, rferrors.NewAtLine(rferrors.Parse, line, "%s: %w", path, err)
		}
		out = append(out, float32(v))
	}
	if err := sc.Err(); err != nil {
		return nil, rferrors.New(rferrors.IOOpen, "%s: %w", path, err)
	}
	return out, nil
}

// FilterRange is a closed interval [Lo, Hi] on the filter axis.
type FilterRange struct {
	Lo, Hi float32
}

// ReadQueryFilterCSV reads one "<min>-<max>" range per line.
func ReadQueryFilterCSV(path string) ([]FilterRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rferrors.New(rferrors.IOOpen, "open %s: %w", path, err)
	}
	defer f.Close()

	var out []FilterRange
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		sep := strings.IndexByte(text, '-')
		if sep < 0 {
			return nil, rferrors.NewAtLine(rferrors.Parse, line, "%s: missing '-' separator in %q", path, text)
		}
		minStr, maxStr := text[:sep], text[sep+1:]
		minVal, err := strconv.ParseFloat(minStr, 32)
		if err != nil {
			return nil, rferrors.NewAtLine(rferrors.Parse, line, "%s: min: %w", path, err)
		}
		maxVal, err := strconv.ParseFloat(maxStr, 32)
		if err != nil {
			return nil, rferrors.NewAtLine(rferrors.Parse, line, "%s: max: %w", path, err)
		}
		out = append(out, FilterRange{Lo: float32(minVal), Hi: float32(maxVal)})
	}
	if err := sc.Err(); err != nil {
		return nil, rferrors.New(rferrors.IOOpen, "%s: %w", path, err)
	}
	return out, nil
}

// ReadIvecs reads a stream of int32 d_i followed by int32[d_i] records,
// concatenated to end-of-file, as used for ground-truth neighbor lists.
func ReadIvecs(path string) ([][]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rferrors.New(rferrors.IOOpen, "open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var records [][]int32
	for {
		var d int32
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			if err == io.EOF {
				break
			}
			return nil, rferrors.New(rferrors.IOOpen, "%s: read record length: %w", path, err)
		}
		row := make([]int32, d)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, rferrors.New(rferrors.IOOpen, "%s: truncated record: %w", path, err)
		}
		records = append(records, row)
	}
	return records, nil
}

// ParseLSearchList parses a comma-separated list of positive integers,
// optionally wrapped in brackets (e.g. "[10,20,30]" or "10,20,30").
func ParseLSearchList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, rferrors.New(rferrors.Parse, "L_search_list: %w", err)
		}
		if v <= 0 {
			return nil, rferrors.New(rferrors.Parse, "L_search_list: %d is not positive", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, rferrors.New(rferrors.Parse, "L_search_list: empty list %q", s)
	}
	return out, nil
}

