package cli

import (
	"github.com/dkarlsen/stagewatch/internal/repository"
	"github.com/dkarlsen/stagewatch/internal/service"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
	"github.com/spf13/cobra"
)

// App holds references to the services and repositories used by CLI
// commands.
type App struct {
	Chronology   service.ChronologyService
	Scheduler    service.SchedulerService
	Stages       service.StageService
	Assignees    *service.AssigneeResolver
	Projects     repository.ProjectRepo
	ProjectTypes repository.ProjectTypeRepo
	Rules        repository.RuleRepo
	Calendar     timecalc.WorkCalendar
}

// NewRootCmd creates the top-level "stagewatch" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "stagewatch",
		Short: "Workflow stage tracker with business-time accounting and notifications",
	}

	root.AddCommand(
		newTypeCmd(app),
		newProjectCmd(app),
		newStageCmd(app),
		newRuleCmd(app),
		newTransitionCmd(app),
		newHistoryCmd(app),
		newSLACmd(app),
		newNotificationsCmd(app),
		newGenerateCmd(app),
		newProcessDueCmd(app),
	)

	return root
}
