package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Manage the service catalog",
}

var servicesSaveCmd = &cobra.Command{
	Use:   "save [title]",
	Short: "Create or update a service by title",
	Args:  cobra.ExactArgs(1),
	RunE:  runServicesSave,
}

var servicesDeleteCmd = &cobra.Command{
	Use:   "delete [service-id]",
	Short: "Delete a service that no appointment references",
	Args:  cobra.ExactArgs(1),
	RunE:  runServicesDelete,
}

var serviceFlags struct {
	description string
	short       string
	price       string
	duration    int
	active      bool
	display     bool
}

func init() {
	f := servicesSaveCmd.Flags()
	f.StringVar(&serviceFlags.description, "description", "", "Full description")
	f.StringVar(&serviceFlags.short, "short", "", "Short description for listings")
	f.StringVar(&serviceFlags.price, "price", "0.00", "Price in euro, two decimals")
	f.IntVar(&serviceFlags.duration, "duration", 0, "Duration in minutes (required)")
	f.BoolVar(&serviceFlags.active, "active", true, "Offer the service for booking")
	f.BoolVar(&serviceFlags.display, "display", false, "Show the service on the public pages")

	servicesCmd.AddCommand(servicesSaveCmd)
	servicesCmd.AddCommand(servicesDeleteCmd)
	rootCmd.AddCommand(servicesCmd)
}

func newService(title string) (model.Service, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Service{}, errors.New("title is required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(serviceFlags.price))
	if err != nil || price.IsNegative() || !price.Equal(price.Round(2)) {
		return model.Service{}, fmt.Errorf("invalid price %q", serviceFlags.price)
	}
	if price.GreaterThanOrEqual(decimal.NewFromInt(100000000)) {
		return model.Service{}, fmt.Errorf("price %s does not fit ten digits", price.StringFixed(2))
	}
	if serviceFlags.duration <= 0 {
		return model.Service{}, errors.New("duration must be a positive number of minutes")
	}
	return model.Service{
		Title:            title,
		Description:      serviceFlags.description,
		ShortDescription: serviceFlags.short,
		Price:            price,
		DurationMinutes:  serviceFlags.duration,
		Active:           serviceFlags.active,
		Display:          serviceFlags.display,
	}, nil
}

func runServicesSave(cmd *cobra.Command, args []string) error {
	svc, err := newService(args[0])
	if err != nil {
		return err
	}
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		saved, err := storage.NewCatalogRepository(pool).Save(ctx, svc)
		if err != nil {
			return fmt.Errorf("save service: %w", err)
		}
		cmd.Printf("Saved service %q (id %d): %d min, €%s\n", saved.Title, saved.ID, saved.DurationMinutes, saved.Price.StringFixed(2))
		return nil
	})
}

func runServicesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid service id %q", args[0])
	}
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		err := storage.NewCatalogRepository(pool).Delete(ctx, id)
		switch {
		case err == nil:
			cmd.Printf("Deleted service %d\n", id)
			return nil
		case storage.IsProtected(err):
			return fmt.Errorf("service %d still has appointments; deactivate it instead", id)
		case storage.IsNotFound(err):
			return fmt.Errorf("service %d not found", id)
		default:
			return fmt.Errorf("delete service: %w", err)
		}
	})
}
