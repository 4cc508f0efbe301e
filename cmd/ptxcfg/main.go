/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command ptxcfg reads PTX kernels, builds their control-flow graphs and
// writes them back as PTX text or as Graphviz graphs.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/multierr"

	ocelot "github.com/florianjacob/gpuocelot"
	"github.com/florianjacob/gpuocelot/debug"
	"github.com/florianjacob/gpuocelot/internal/cfg"
	"github.com/florianjacob/gpuocelot/internal/opts"
)

var (
	ConfigFile string
	OutputFile string
	Canonical  bool
	Dot        bool
	Dom        bool
	Stats      bool
	Workers    int
)

func init() {
	flag.StringVar(&ConfigFile, "config", "", "TOML configuration file")
	flag.StringVar(&OutputFile, "o", "", "output file, stdout if empty")
	flag.BoolVar(&Canonical, "canonical", false, "rename blocks to canonical labels")
	flag.BoolVar(&Dot, "dot", false, "write the control-flow graphs in Graphviz format")
	flag.BoolVar(&Dom, "dom", false, "write the dominator and post-dominator of every block")
	flag.BoolVar(&Stats, "stats", false, "print build statistics to stderr")
	flag.IntVar(&Workers, "workers", 0, "kernels built concurrently, overrides the configuration")
}

func loadOptions() []ocelot.Option {
	o := opts.GetDefaultOptions()
	if ConfigFile != "" {
		var err error
		if o, err = opts.LoadFile(ConfigFile); err != nil {
			log.Fatal(fmt.Errorf("load %s failed: %w", ConfigFile, err))
		}
	}

	if Workers > 0 {
		o.MaxWorkers = Workers
	}

	return []ocelot.Option{
		ocelot.WithMaxWorkers(o.MaxWorkers),
		ocelot.WithCanonicalLabels(o.CanonicalLabels || Canonical),
		ocelot.WithVersion(o.Version),
		ocelot.WithLogLevel(o.LogLevel),
	}
}

func openInput(names []string) (io.Reader, []*os.File) {
	if len(names) == 0 {
		return os.Stdin, nil
	}

	var rd []io.Reader
	var fps []*os.File
	for _, name := range names {
		fp, err := os.Open(name)
		if err != nil {
			closeInput(fps)
			log.Fatal(fmt.Errorf("open %s failed: %w", name, err))
		}
		fps = append(fps, fp)
		rd = append(rd, fp, strings.NewReader("\n"))
	}
	return io.MultiReader(rd...), fps
}

func closeInput(fps []*os.File) {
	for _, fp := range fps {
		if err := fp.Close(); err != nil {
			log.Println(fmt.Errorf("close %s failed: %w", fp.Name(), err))
		}
	}
}

func blockName(bb *cfg.BasicBlock) string {
	if bb == nil {
		return "-"
	}
	return bb.String()
}

func writeDominators(k *ocelot.Kernel, w io.Writer) error {
	dt, err := k.Dominators()
	if err != nil {
		return err
	}
	pdt, err := k.PostDominators()
	if err != nil {
		return err
	}
	rp, err := k.ReconvergencePoints()
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintf(w, "%s:\n", k.Name); err != nil {
		return err
	}
	for _, bb := range k.CFG().Blocks() {
		line := fmt.Sprintf("\t%s\tidom %s\tipdom %s", bb, blockName(dt.Idom(bb)), blockName(pdt.Idom(bb)))
		if to, ok := rp[bb]; ok {
			line += "\treconverge " + to.String()
		}
		if _, err = io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(m *ocelot.Module, w io.Writer) error {
	switch {
	case Dom:
		for _, k := range m.Kernels {
			if err := writeDominators(k, w); err != nil {
				return err
			}
		}
		return nil
	case Dot:
		for _, k := range m.Kernels {
			if err := k.CFG().Dot(w, k.Name); err != nil {
				return err
			}
		}
		return nil
	default:
		return m.Write(w)
	}
}

func main() {
	flag.Parse()
	options := loadOptions()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in, fps := openInput(flag.Args())
	m, err := ocelot.ReadModule(ctx, in, options...)
	closeInput(fps)
	if m == nil {
		log.Fatal(fmt.Errorf("read module failed: %w", err))
	}
	for _, e := range multierr.Errors(err) {
		log.Println(e)
	}

	out := os.Stdout
	if OutputFile != "" {
		if out, err = os.Create(OutputFile); err != nil {
			log.Fatal(fmt.Errorf("create %s failed: %w", OutputFile, err))
		}
		defer out.Close()
	}

	bw := bufio.NewWriter(out)
	if err = writeOutput(m, bw); err == nil {
		err = bw.Flush()
	}
	if err != nil {
		log.Fatal(fmt.Errorf("write output failed: %w", err))
	}

	if Stats {
		st := debug.GetStats()
		log.Printf("kernels: %d, failures: %d, blocks: %d, edges: %d, registers: %d",
			st.Kernels, st.Failures, st.Graph.Blocks, st.Graph.Edges, st.Registers)
	}
}
