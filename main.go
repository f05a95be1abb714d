package main

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ns3d/config"
	"ns3d/geom"
	"ns3d/grid"
	"ns3d/output"
	"ns3d/server"
	"ns3d/solver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("simulation failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath, shapePath string
	cmd := &cobra.Command{
		Use:           "ns3d",
		Short:         "Incompressible flow and heat transport around a moving voxelized geometry",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath, shapePath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.ini", "path to the ini configuration")
	cmd.Flags().StringVarP(&shapePath, "shape", "s", "", "path to the geometry file")
	cmd.MarkFlagRequired("shape")
	return cmd
}

func run(cfgPath, shapePath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	g := buildGrid(cfg)
	if err := g.Load(shapePath, cfg.Grid.Align); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"dimx": g.Dimx, "dimy": g.Dimy, "dimz": g.Dimz,
		"frames": g.FramesNum(),
	}).Info("grid loaded")

	params, err := cfg.Params()
	if err != nil {
		return err
	}

	opts := solver.Options{
		Transpose:    cfg.Solver.Transpose,
		ErrThreshold: cfg.Solver.ErrThreshold,
	}
	if cfg.Solver.Decompose {
		// single-process build runs the whole domain as one slab
		opts.Partition = &solver.Partition{Offset: 0, Length: g.Dimx}
	}
	adi := solver.NewAdi(g, params, opts)

	hub := server.NewHub()
	if cfg.Server.Enabled {
		srv := server.New(cfg.Server.Addr, hub)
		go func() {
			if err := srv.Serve(); err != nil {
				log.WithError(err).Error("viewer server stopped")
			}
		}()
	}

	resFile, err := os.Create(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}
	defer resFile.Close()
	writer, err := output.NewWriter(resFile, g.BBox(), cfg.Output.Dimx, cfg.Output.Dimy, cfg.Output.Dimz)
	if err != nil {
		return err
	}

	outN := cfg.Output.Dimx * cfg.Output.Dimy * cfg.Output.Dimz
	u := make([]float64, outN)
	v := make([]float64, outN)
	w := make([]float64, outN)
	t := make([]float64, outN)

	outEvery := cfg.Run.CalcSubframes / cfg.Run.OutSubframes
	if outEvery < 1 {
		outEvery = 1
	}

	frames := g.FramesNum()
	curTime := 0.0
	outIndex := 0
	started := time.Now()
	for cycle := 0; cycle < cfg.Run.Cycles; cycle++ {
		for frame := 0; frame < frames; frame++ {
			frameTime := g.LayerTime(curTime)
			dt := frameTime / float64(cfg.Run.CalcSubframes)

			var divErr float64
			for sub := 0; sub < cfg.Run.CalcSubframes; sub++ {
				if err := g.Prepare(curTime); err != nil {
					return err
				}
				adi.UpdateBoundaries()
				divErr, err = adi.TimeStep(dt, cfg.Solver.NumGlobal, cfg.Solver.NumLocal)
				if err != nil {
					return fmt.Errorf("cycle %d frame %d subframe %d: %w", cycle, frame, sub, err)
				}
				adi.SetGridBoundaries()
				curTime += dt

				if (sub+1)%outEvery == 0 {
					adi.ExportLayer(u, v, w, t, cfg.Output.Dimx, cfg.Output.Dimy, cfg.Output.Dimz)
					if err := writer.WriteFrame(curTime, u, v, w, t); err != nil {
						return err
					}
					if cfg.Server.Enabled {
						hub.Publish(server.Frame{
							Index:  outIndex,
							Time:   curTime,
							DivErr: divErr,
							Dims:   [3]int{cfg.Output.Dimx, cfg.Output.Dimy, cfg.Output.Dimz},
							U:      append([]float64(nil), u...),
							V:      append([]float64(nil), v...),
							W:      append([]float64(nil), w...),
							T:      append([]float64(nil), t...),
						})
					}
					outIndex++
				}
			}

			log.WithFields(log.Fields{
				"cycle": cycle, "frame": frame,
				"time": curTime, "err": divErr,
				"elapsed": time.Since(started).Round(time.Millisecond),
			}).Info("frame done")
		}
	}
	return nil
}

func buildGrid(cfg *config.Config) *grid.Grid {
	gc := cfg.Grid
	switch gc.Geometry {
	case config.GeomShape2D:
		return grid.NewGrid2D(gc.Dx, gc.Dy, gc.Dz, gc.Depth, gc.BaseT)
	case config.GeomNetCDF:
		initVel := geom.Vec3D{X: gc.InitVelX, Y: gc.InitVelY, Z: gc.InitVelZ}
		return grid.NewGridNetCDF(gc.Dx, gc.Dy, gc.Dz, gc.BaseT, initVel)
	}
	return grid.NewGrid3D(gc.Dx, gc.Dy, gc.Dz, gc.BaseT)
}
