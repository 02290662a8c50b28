package service

import (
	"releaseguard.app/guard/internal/queue"
	"releaseguard.app/guard/internal/service/codehost"
	"releaseguard.app/guard/internal/service/issue_tracker"
	"releaseguard.app/guard/internal/store"
)

type Services struct {
	stores   *store.Stores
	txRunner TxRunner
	issues   issue_tracker.IssueTrackerService
	changes  codehost.PullRequestService
	producer queue.Producer
	mergeCfg MergeConfig
}

func NewServices(
	stores *store.Stores,
	txRunner TxRunner,
	issues issue_tracker.IssueTrackerService,
	changes codehost.PullRequestService,
	producer queue.Producer,
	mergeCfg MergeConfig,
) *Services {
	return &Services{
		stores:   stores,
		txRunner: txRunner,
		issues:   issues,
		changes:  changes,
		producer: producer,
		mergeCfg: mergeCfg,
	}
}

func (s *Services) BlockSchedule() BlockScheduleService {
	return NewBlockScheduleService(s.stores.BlockWindows(), s.txRunner)
}

func (s *Services) Merge() MergeService {
	return NewMergeService(s.issues, s.changes, s.BlockSchedule(), s.producer, s.mergeCfg)
}
