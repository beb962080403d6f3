// Command clustercli runs the clustering core as a standalone tool: it
// reads a run request as JSON from stdin or a file, builds the cluster
// assignment, and writes the result envelope to stdout or a file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cvrpcluster/internal/cluster"
	"cvrpcluster/internal/compat"
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
	"cvrpcluster/internal/serialize"
)

func main() {
	input := flag.String("input", "", "path to the run request JSON (default: stdin)")
	output := flag.String("output", "", "path to write the result envelope (default: stdout)")
	heuristic := flag.String("heuristic", "", "override the request's heuristic (parallel|sequential)")
	initFlag := flag.String("init", "", "override the request's init policy (none|higher_amount|nearest)")
	regretCoeff := flag.Float64("regret-coeff", 0, "override the request's regret coefficient (0 keeps the request's value)")
	flag.Parse()

	req, err := readRequest(*input)
	if err != nil {
		log.Fatalf("clustercli: %v", err)
	}
	if *heuristic != "" {
		req.Heuristic = *heuristic
	}
	if *initFlag != "" {
		req.Init = *initFlag
	}
	if *regretCoeff != 0 {
		req.RegretCoeff = *regretCoeff
	}

	doc := run(req)
	if err := serialize.WriteToSink(*output, doc); err != nil {
		log.Fatalf("clustercli: %v", err)
	}
	if doc.Code != serialize.CodeOK {
		os.Exit(1)
	}
}

func readRequest(path string) (model.RunRequest, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return model.RunRequest{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	var req model.RunRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return model.RunRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func run(req model.RunRequest) serialize.Document {
	loadStart := time.Now()
	h, err := cluster.ParseHeuristic(req.Heuristic)
	if err != nil {
		return serialize.ErrorDocument(err)
	}
	initPolicy, err := cluster.ParseInit(req.Init)
	if err != nil {
		return serialize.ErrorDocument(err)
	}
	m, err := matrix.New(req.Matrix)
	if err != nil {
		return serialize.ErrorDocument(fmt.Errorf("%w: %v", cluster.ErrInvalidInput, err))
	}
	oracle := compat.Build(req.Vehicles, req.Jobs)
	loading := time.Since(loadStart)

	solveStart := time.Now()
	res, err := cluster.Run(req.Jobs, req.Vehicles, m, oracle, h, initPolicy, req.RegretCoeff)
	solving := time.Since(solveStart)
	if err != nil {
		return serialize.ErrorDocument(err)
	}
	return serialize.BuildDocument(req.Jobs, req.Vehicles, res, loading, solving)
}
