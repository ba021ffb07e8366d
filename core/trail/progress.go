package trail

// Calculate computes a member's progress on a trail from its stages, its steps and the IDs of the steps
// the member completed. Steps of unknown stages and completions of unknown steps are ignored.
//
// The current stage is the first one with an incomplete step, or the last one once all are complete.
func Calculate(stages []Stage, steps []Step, completed map[string]bool) Progress {
	sortedStages := make([]Stage, len(stages))
	copy(sortedStages, stages)
	SortStages(sortedStages)

	byStage := make(map[string][]Step, len(sortedStages))
	for _, st := range steps {
		byStage[st.StageID] = append(byStage[st.StageID], st)
	}

	prog := Progress{
		Stages:            make([]StageProgress, 0, len(sortedStages)),
		CurrentStageIndex: -1,
	}
	for i, stage := range sortedStages {
		sp := StageProgress{StageID: stage.ID, Title: stage.Title}
		for _, st := range byStage[stage.ID] {
			sp.TotalSteps++
			if completed[st.ID] {
				sp.CompletedSteps++
			}
		}
		sp.Complete = sp.CompletedSteps == sp.TotalSteps
		if !sp.Complete && prog.CurrentStageIndex < 0 {
			prog.CurrentStageIndex = i
		}

		prog.TotalSteps += sp.TotalSteps
		prog.CompletedSteps += sp.CompletedSteps
		prog.Stages = append(prog.Stages, sp)
	}

	if prog.CurrentStageIndex < 0 {
		prog.CurrentStageIndex = 0
		if n := len(sortedStages); n > 0 {
			prog.CurrentStageIndex = n - 1
		}
	}
	if prog.TotalSteps > 0 {
		prog.Percentage = float64(prog.CompletedSteps) * 100 / float64(prog.TotalSteps)
	}
	return prog
}
