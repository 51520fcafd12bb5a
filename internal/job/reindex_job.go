package job

import "context"

const ReindexJobName = "bill_reindex"

type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

type ReindexJob struct {
	indexer Reindexer
}

func NewReindexJob(indexer Reindexer) *ReindexJob {
	return &ReindexJob{indexer: indexer}
}

func (j *ReindexJob) Name() string {
	return ReindexJobName
}

func (j *ReindexJob) Run(ctx context.Context) error {
	if j.indexer == nil {
		return nil
	}
	_, err := j.indexer.Reindex(ctx)
	return err
}
