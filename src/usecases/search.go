package usecases

import (
	"context"

	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/joeg-ita/jobdrop/src/utils"
)

type Search struct {
	jobsRepo domain.JobRepositoryInt
}

func NewSearch(jobsRepo domain.JobRepositoryInt) *Search {
	return &Search{jobsRepo: jobsRepo}
}

// Search returns every record whose title contains query, ignoring case.
// The empty query returns all records. No match is an empty, non-nil slice.
func (s *Search) Search(ctx context.Context, query string) ([]domain.JobRecord, error) {
	jobs, err := s.jobsRepo.SearchByTitle(ctx, query)
	if err != nil {
		err = domain.NewPersistenceError(err)
		utils.GetLogger().Errorw("job search failed", "query", query, "err", err)
		return nil, err
	}
	if jobs == nil {
		jobs = []domain.JobRecord{}
	}
	utils.GetLogger().Debugw("job search", "query", query, "matches", len(jobs))
	return jobs, nil
}
