package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/services"
)

const (
	DemoFundEmail    = "admin@openallocatorsnetwork.com"
	DemoFundPassword = "AdminPassword123!"
	DemoLPEmail      = "investor@example.com"
	DemoLPPassword   = "InvestorPassword123!"
)

func str(s string) *string { return &s }

func demoFundPatch() *models.FundProfilePatch {
	fundType := models.FundTypeCryptoFund
	risk := models.RiskHigh
	accredited := true
	return &models.FundProfilePatch{
		FundName:           str("Open Allocators Network Demo Fund"),
		Jurisdiction:       str("Delaware, USA"),
		Description:        str("A demonstration crypto hedge fund focused on institutional-grade digital asset investments with systematic risk management."),
		Website:            str("https://democonnect.com"),
		ContactPerson:      str("John Smith"),
		ContactEmail:       str(DemoFundEmail),
		ContactPhone:       str("+1 (555) 123-4567"),
		ManagementFee:      models.Num(2),
		PerformanceFee:     models.Num(20),
		AUM:                models.Num(50_000_000),
		MinimumInvestment:  models.Num(100_000),
		AnnualReturn:       models.Num(45.2),
		FundType:           &fundType,
		InvestmentStrategy: str("Multi-strategy book across Bitcoin, Ethereum and selected altcoins driven by quantitative signals."),
		RiskLevel:          &risk,
		IsAccredited:       &accredited,
	}
}

func demoLPPatch() *models.LPProfilePatch {
	investor := models.InvestorFamilyOffice
	risk := models.RiskMedium
	return &models.LPProfilePatch{
		FirstName:          str("Jane"),
		LastName:           str("Investor"),
		Company:            str("Family Office LLC"),
		InvestorType:       &investor,
		InvestmentCapacity: models.Num(5_000_000),
		PreferredRiskLevel: &risk,
		InvestmentHorizon:  str("3-5 years"),
	}
}

// seed creates the demo fund and LP. Accounts that already exist are left
// untouched, so running it twice is harmless.
func (a *App) seed(ctx context.Context) error {
	demos := []struct {
		email, password string
		role            models.Role
		patch           services.ProfilePatch
	}{
		{DemoFundEmail, DemoFundPassword, models.RoleFund, services.ProfilePatch{Fund: demoFundPatch()}},
		{DemoLPEmail, DemoLPPassword, models.RoleLP, services.ProfilePatch{LP: demoLPPatch()}},
	}

	for _, d := range demos {
		acc, err := a.accounts.Provision(ctx, d.email, d.password, d.role)
		if errors.Is(err, common.ErrDuplicateAccount) {
			fmt.Fprintf(a.out, "%s already exists, skipping\n", d.email)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", d.email, err)
		}
		if _, err := a.profiles.Update(ctx, acc, d.patch); err != nil {
			return fmt.Errorf("seed %s profile: %w", d.email, err)
		}
		fmt.Fprintf(a.out, "created %s %s / %s\n", d.role, d.email, d.password)
	}
	return nil
}
