package identitysvc

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the Python service's passlib default rounds.
const bcryptCost = bcrypt.DefaultCost

func hashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func verifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
