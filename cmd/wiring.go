// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/LeeDigitalWorks/bucketvault/pkg/archive"
	"github.com/LeeDigitalWorks/bucketvault/pkg/archivefs"
	"github.com/LeeDigitalWorks/bucketvault/pkg/bucketlock"
	"github.com/LeeDigitalWorks/bucketvault/pkg/events"
	"github.com/LeeDigitalWorks/bucketvault/pkg/export"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/pathresolver"
	"github.com/LeeDigitalWorks/bucketvault/pkg/thaw"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// pipeline holds the components shared by the commands
type pipeline struct {
	cfg     *types.ArchiveConfig
	fs      archivefs.FileSystem
	paths   *pathresolver.PathResolver
	locker  *bucketlock.Locker
	events  *events.Emitter
	limiter *rate.Limiter
}

func newPipeline(v *viper.Viper) (*pipeline, error) {
	cfg, err := types.LoadArchiveConfig(v)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.TmpDir == "" {
		cfg.Storage.TmpDir = cfg.TmpDir
	}

	fs, err := archivefs.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("archive storage: %w", err)
	}

	paths, err := pathresolver.NewFromConfig(cfg)
	if err != nil {
		fs.Close()
		return nil, err
	}

	locker, err := bucketlock.NewLocker(cfg.Lock)
	if err != nil {
		fs.Close()
		return nil, err
	}

	emitter, err := events.NewEmitterFromConfig(cfg.Events, cfg.ClusterName, cfg.ServerName)
	if err != nil {
		locker.Close()
		fs.Close()
		return nil, fmt.Errorf("events: %w", err)
	}

	p := &pipeline{cfg: cfg, fs: fs, paths: paths, locker: locker, events: emitter}
	if cfg.RequestsPerSecond > 0 {
		burst := max(int(cfg.RequestsPerSecond), 1)
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger.Debug().
		Str("archive_root", paths.Root()).
		Str("storage", string(cfg.Storage.Type)).
		Str("lock", string(cfg.Lock.Type)).
		Bool("events", emitter.IsEnabled()).
		Str("format", string(cfg.Format)).
		Msg("pipeline configured")
	return p, nil
}

func (p *pipeline) freezer() *archive.Freezer {
	exporter := export.NewExporter(p.cfg, export.NewCSVConverter(p.cfg.TmpDir))
	transferer := archive.NewTransferer(p.fs, p.paths).WithEmitter(p.events)
	return archive.NewFreezer(archive.FreezerConfig{
		SafeLocation: p.cfg.SafeLocation,
		Concurrency:  p.cfg.Concurrency,
		Archiver:     archive.NewBucketArchiver(exporter, transferer),
		Locks:        p.locker,
	})
}

func (p *pipeline) lister() *thaw.BucketLister {
	return thaw.NewBucketLister(p.paths, p.fs)
}

func (p *pipeline) resolver() *thaw.FormatResolver {
	return thaw.NewFormatResolver(thaw.ResolverConfig{
		Paths:       p.paths,
		FS:          p.fs,
		Concurrency: p.cfg.Concurrency,
		Limiter:     p.limiter,
	})
}

func (p *pipeline) thawer() *thaw.Thawer {
	return thaw.NewThawer(thaw.ThawerConfig{
		FS:          p.fs,
		Locations:   thaw.ConfigThawLocations(p.cfg.ThawLocations),
		Concurrency: p.cfg.Concurrency,
		Limiter:     p.limiter,
		Events:      p.events,
	})
}

func (p *pipeline) Close() error {
	return errors.Join(p.events.Close(), p.locker.Close(), p.fs.Close())
}
