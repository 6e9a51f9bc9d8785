// Package policy holds the authorization predicates for recipes. All
// functions are pure: the acting user is passed explicitly, there is no
// ambient current-user state.
package policy

import "github.com/recipeshare/backend/internal/models"

// CanView allows anyone, guests included, to view a recipe.
func CanView(user *models.User, recipe *models.Recipe) bool {
	return true
}

// CanCreate allows any authenticated user to create recipes.
func CanCreate(user *models.User) bool {
	return user != nil
}

// CanUpdate allows the owner or an admin to update a recipe.
func CanUpdate(user *models.User, recipe *models.Recipe) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin() || user.ID == recipe.UserID
}

// CanDelete follows the same rule as CanUpdate.
func CanDelete(user *models.User, recipe *models.Recipe) bool {
	return CanUpdate(user, recipe)
}

// CanRestore is admin-only.
func CanRestore(user *models.User, recipe *models.Recipe) bool {
	return user != nil && user.IsAdmin()
}

// CanForceDelete is admin-only.
func CanForceDelete(user *models.User, recipe *models.Recipe) bool {
	return user != nil && user.IsAdmin()
}
