//go:build e2e

package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BudgetSuite drives the UI in headless Chromium.
type BudgetSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

func (s *BudgetSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(s.T(), err, "could not launch playwright")
	s.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(s.T(), err, "could not launch chromium")
	s.browser = browser

	s.expect = playwright.NewPlaywrightAssertions()
}

func (s *BudgetSuite) TearDownSuite() {
	if s.browser != nil {
		s.browser.Close()
	}
	if s.pw != nil {
		s.pw.Stop()
	}
}

func (s *BudgetSuite) SetupTest() {
	page, err := s.browser.NewPage()
	require.NoError(s.T(), err, "could not create page")
	s.page = page
	// unsaved-changes guard would block navigation between steps
	s.page.OnDialog(func(d playwright.Dialog) { _ = d.Accept() })
}

func (s *BudgetSuite) TearDownTest() {
	if s.page != nil {
		s.page.Close()
	}
}

func (s *BudgetSuite) fill(selector, value string) {
	require.NoError(s.T(), s.page.Locator(selector).Fill(value), "fill %s", selector)
}

func (s *BudgetSuite) click(selector string) {
	require.NoError(s.T(), s.page.Locator(selector).Click(), "click %s", selector)
}

func (s *BudgetSuite) signupAndLogin() string {
	username := fmt.Sprintf("user%d", time.Now().UnixNano())

	_, err := s.page.Goto(appURL + "/signup")
	require.NoError(s.T(), err)
	s.fill("input[name=username]", username)
	s.fill("input[name=password]", "secret123")
	s.fill("input[name=confirm_password]", "secret123")
	s.click("button[type=submit]")

	require.NoError(s.T(), s.expect.Locator(s.page.Locator(".success")).ToContainText("Account created"))

	s.fill("input[name=username]", username)
	s.fill("input[name=password]", "secret123")
	s.click("button[type=submit]")

	require.NoError(s.T(), s.expect.Locator(s.page.Locator("#budget-panel")).ToBeVisible())
	return username
}

func (s *BudgetSuite) TestBudgetFlow() {
	s.signupAndLogin()

	income := s.page.Locator("form[action='/budget/income']")
	require.NoError(s.T(), income.Locator("input[name=amount]").Fill("2000"))
	require.NoError(s.T(), income.Locator("button").Click())
	require.NoError(s.T(), s.expect.Locator(s.page.Locator("#unsaved")).ToBeVisible())

	quick := s.page.Locator("form[action='/budget/quick-add']")
	_, err := quick.Locator("select[name=category]").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{"Groceries"},
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), quick.Locator("input[name=expression]").Fill("300+200"))
	require.NoError(s.T(), quick.Locator("button").Click())

	require.NoError(s.T(), s.expect.Locator(s.page.Locator(".summary")).ToContainText("$1,500.00"))

	s.click("form[action='/budget/save'] button")
	require.NoError(s.T(), s.expect.Locator(s.page.Locator(".toast.success").Last()).ToContainText("Data saved for"))
	require.NoError(s.T(), s.expect.Locator(s.page.Locator("#unsaved")).ToHaveCount(0))

	s.click("nav.tabs a[href='/analysis']")
	require.NoError(s.T(), s.expect.Locator(s.page.Locator("h1")).ToContainText("Analysis for"))
	require.NoError(s.T(), s.expect.Locator(s.page.Locator("table")).ToContainText("Groceries"))
}

func (s *BudgetSuite) TestWrongPassword() {
	username := s.signupAndLogin()
	s.click("form[action='/logout'] button")

	s.fill("input[name=username]", username)
	s.fill("input[name=password]", "not-the-password")
	s.click("button[type=submit]")

	require.NoError(s.T(), s.expect.Locator(s.page.Locator(".error")).ToContainText("incorrect password"))
}

func TestBudgetSuite(t *testing.T) {
	suite.Run(t, new(BudgetSuite))
}
