package application

import "loan-origination/internal/domain/user"

// borrowerTargets are the only statuses a borrower may request, and only on
// their own application.
var borrowerTargets = map[Status]bool{
	StatusSubmitted: true,
	StatusWithdrawn: true,
}

// VisibleTo reports whether u may read the application and everything hanging
// off it. Staff see every application, borrowers only their own.
func (a *LoanApplication) VisibleTo(u *user.User) bool {
	if u == nil {
		return false
	}
	return u.IsStaff() || a.UserID == u.ID
}

// MayRequest reports whether u may ask for status s on an application that is
// visible to them.
func MayRequest(u *user.User, s Status) bool {
	if u.IsStaff() {
		return true
	}
	return borrowerTargets[s]
}
