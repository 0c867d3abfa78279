package models

type FundType string

const (
	FundTypeHedgeFund      FundType = "HEDGE_FUND"
	FundTypeVentureCapital FundType = "VENTURE_CAPITAL"
	FundTypePrivateEquity  FundType = "PRIVATE_EQUITY"
	FundTypeCryptoFund     FundType = "CRYPTO_FUND"
	FundTypeOther          FundType = "OTHER"
)

func (t FundType) Valid() bool {
	switch t {
	case FundTypeHedgeFund, FundTypeVentureCapital, FundTypePrivateEquity, FundTypeCryptoFund, FundTypeOther:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskVeryHigh:
		return true
	}
	return false
}

type InvestorType string

const (
	InvestorFamilyOffice  InvestorType = "FAMILY_OFFICE"
	InvestorHNWI          InvestorType = "HNWI"
	InvestorFundOfFunds   InvestorType = "FUND_OF_FUNDS"
	InvestorInstitutional InvestorType = "INSTITUTIONAL"
	InvestorOther         InvestorType = "OTHER"
)

func (i InvestorType) Valid() bool {
	switch i {
	case InvestorFamilyOffice, InvestorHNWI, InvestorFundOfFunds, InvestorInstitutional, InvestorOther:
		return true
	}
	return false
}
