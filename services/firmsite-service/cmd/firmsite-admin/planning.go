package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/planning"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/storage"
	"github.com/spf13/cobra"
)

var planningCmd = &cobra.Command{
	Use:   "planning",
	Short: "Manage booking availability",
}

var planningSaveCmd = &cobra.Command{
	Use:   "save [title]",
	Short: "Create or update a planning by title",
	Long: `Saves the allowed start times, disabled dates and disabled weekdays of a planning.
Every list is comma separated: times as HH:MM, dates as DD.MM.YYYY, weekdays as 0-6 with 0 for Sunday.
An invalid list is reported and nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanningSave,
}

var planningFlags struct {
	allowTimes       string
	disabledDates    string
	disabledWeekdays string
	active           bool
}

func init() {
	f := planningSaveCmd.Flags()
	f.StringVar(&planningFlags.allowTimes, "allow-times", "", "Allowed start times, e.g. 09:00,10:00")
	f.StringVar(&planningFlags.disabledDates, "disabled-dates", "", "Closed dates, e.g. 24.12.2030,31.12.2030")
	f.StringVar(&planningFlags.disabledWeekdays, "disabled-weekdays", "", "Closed weekdays, e.g. 0,6")
	f.BoolVar(&planningFlags.active, "active", true, "Use this planning for bookings")

	planningCmd.AddCommand(planningSaveCmd)
	rootCmd.AddCommand(planningCmd)
}

func newPlanning(title string) (model.Planning, error) {
	p := model.Planning{
		Title:            strings.TrimSpace(title),
		AllowTimes:       strings.TrimSpace(planningFlags.allowTimes),
		DisabledDates:    strings.TrimSpace(planningFlags.disabledDates),
		DisabledWeekdays: strings.TrimSpace(planningFlags.disabledWeekdays),
		Active:           planningFlags.active,
	}
	if p.Title == "" {
		return model.Planning{}, errors.New("title is required")
	}
	if err := planning.Validate(p); err != nil {
		return model.Planning{}, err
	}
	return p, nil
}

func runPlanningSave(cmd *cobra.Command, args []string) error {
	p, err := newPlanning(args[0])
	if err != nil {
		return err
	}
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		saved, err := storage.NewPlanningRepository(pool).Save(ctx, p)
		if err != nil {
			return fmt.Errorf("save planning: %w", err)
		}
		cmd.Printf("Saved planning %q (id %d)\n", saved.Title, saved.ID)
		return nil
	})
}
