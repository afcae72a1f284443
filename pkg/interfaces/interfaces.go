/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared interfaces for the oracle. Defines the sampler contract implemented
by the external engine driver and the built-in reference sampler, kept here to break
import cycles between the orchestrator and the drivers.
*/

package interfaces

import (
	"context"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"github.com/kleascm/akaylee-oracle/pkg/wire"
)

// Job describes one sampler invocation over files already written to Dir
type Job struct {
	ID        string
	Dir       string
	ModelPath string
	RowsPath  string
	// ConfigPath holds the encoded form of Config.
	ConfigPath string
	Config     wire.Config
	// Label names the model within the case, "free" or "fixed-<i>".
	Label string
}

// SamplerConfig configures a sampler before its first job
type SamplerConfig struct {
	EnginePath string
	EngineArgs []string
	EngineEnv  []string
	Timeout    time.Duration
	// MaxLatents bounds exact enumeration in the reference sampler.
	MaxLatents uint64
	// VectorCutoff bounds vector hyperparameter grids in the reference sampler.
	VectorCutoff int
}

// Sampler draws posterior samples for a job
type Sampler interface {
	Initialize(config *SamplerConfig) error
	// Sample returns exactly Job.Config.SampleCount scored latents or an error.
	Sample(ctx context.Context, job *Job) ([]latent.Scored, error)
	Name() string
	Cleanup() error
}
