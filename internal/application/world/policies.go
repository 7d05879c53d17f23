package world

import (
	"fmt"

	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/dispatch"
	"github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/user"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/config"
)

// policySet holds one concrete policy per pluggable behaviour of a run.
type policySet struct {
	matching         dispatch.MatchingPolicy
	buffering        dispatch.BufferingPolicy
	cancellation     dispatch.CancellationPolicy
	demandManagement dispatch.DemandManagementPolicy
	prepositioning   dispatch.PrepositioningPolicy
	prepoEvaluation  dispatch.PrepositioningEvaluationPolicy

	acceptance courier.AcceptancePolicy
	movement   courier.MovementPolicy
	moveEval   courier.MovementEvaluator

	userCancellation user.CancellationPolicy
}

// buildPolicies resolves the policy selectors of the configuration into
// domain policies. Selector values are validated at load time; an unknown
// name still errors here so programmatic configs fail fast too.
func buildPolicies(cfg *config.Config, client routing.Client) (*policySet, error) {
	s := &policySet{}

	switch cfg.Policy.Matching {
	case "nearest":
		s.matching = dispatch.NewNearestMatchingPolicy(cfg.Dispatcher.ProspectsMaxDistance)
	case "greedy":
		s.matching = dispatch.NewGreedyMatchingPolicy(client, cfg.Dispatcher.ProspectsMaxDistance)
	default:
		return nil, fmt.Errorf("unknown matching policy %q", cfg.Policy.Matching)
	}

	switch cfg.Policy.Buffering {
	case "rolling":
		s.buffering = dispatch.NewRollingBufferingPolicy(cfg.Dispatcher.BufferInterval)
	default:
		return nil, fmt.Errorf("unknown buffering policy %q", cfg.Policy.Buffering)
	}

	switch cfg.Policy.DispatchCancellation {
	case "static":
		s.cancellation = dispatch.NewStaticCancellationPolicy()
	default:
		return nil, fmt.Errorf("unknown dispatch cancellation policy %q", cfg.Policy.DispatchCancellation)
	}

	switch cfg.Policy.DemandManagement {
	case "none":
		s.demandManagement = dispatch.NewNoDemandManagementPolicy()
	case "radius":
		s.demandManagement = dispatch.NewRadiusDemandManagementPolicy()
	default:
		return nil, fmt.Errorf("unknown demand management policy %q", cfg.Policy.DemandManagement)
	}

	switch cfg.Policy.Prepositioning {
	case "none":
		s.prepositioning = dispatch.NewNonePrepositioningPolicy()
	case "hotspot":
		s.prepositioning = dispatch.NewDemandHotspotPrepositioningPolicy(
			cfg.Dispatcher.PrepositionMinDistance,
			cfg.Dispatcher.PrepositionMaxCouriers,
		)
	default:
		return nil, fmt.Errorf("unknown prepositioning policy %q", cfg.Policy.Prepositioning)
	}

	switch cfg.Policy.PrepositioningEvaluation {
	case "never":
		s.prepoEvaluation = dispatch.NewNeverPrepositioningEvaluationPolicy()
	case "periodic":
		s.prepoEvaluation = dispatch.NewPeriodicPrepositioningEvaluationPolicy(cfg.Dispatcher.PrepositionInterval)
	default:
		return nil, fmt.Errorf("unknown prepositioning evaluation policy %q", cfg.Policy.PrepositioningEvaluation)
	}

	switch cfg.Policy.Acceptance {
	case "absolute":
		s.acceptance = courier.NewAbsoluteAcceptancePolicy()
	case "uniform":
		s.acceptance = courier.NewUniformAcceptancePolicy(cfg.Policy.AcceptanceMinWait, cfg.Policy.AcceptanceMaxWait)
	default:
		return nil, fmt.Errorf("unknown acceptance policy %q", cfg.Policy.Acceptance)
	}

	switch cfg.Policy.Movement {
	case "osrm":
		s.movement = courier.NewOSRMMovementPolicy(client)
	case "osrm_dynamic":
		s.movement = courier.NewOSRMDynamicMovementPolicy(client)
	default:
		return nil, fmt.Errorf("unknown movement policy %q", cfg.Policy.Movement)
	}

	switch cfg.Policy.MovementEvaluation {
	case "still":
		s.moveEval = courier.NewStillMovementEvaluator()
	case "neighbors":
		s.moveEval = courier.NewNeighborsMovementEvaluator(cfg.Policy.NeighborsCellSize)
	default:
		return nil, fmt.Errorf("unknown movement evaluation policy %q", cfg.Policy.MovementEvaluation)
	}

	switch cfg.Policy.UserCancellation {
	case "never":
		s.userCancellation = user.NewNeverCancellationPolicy()
	case "random":
		s.userCancellation = user.NewRandomCancellationPolicy(cfg.User.CancellationMinWait, cfg.User.CancellationMaxWait)
	default:
		return nil, fmt.Errorf("unknown user cancellation policy %q", cfg.Policy.UserCancellation)
	}

	return s, nil
}
