package farmdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
	"github.com/gestaozabele/farmdesk/internal/util"
)

// GetPersonByRole resolve papel, referente e pessoa. Qualquer elo ausente
// (papel desconhecido, referente sem pessoa, pessoa removida) devolve linha vazia.
func (f *Facade) GetPersonByRole(ctx context.Context, farmUUID, roleName string) (store.Row, error) {
	roleID, ok, err := f.roleID(ctx, repo.TablePersonRoles, roleName)
	if err != nil || !ok {
		return store.Row{}, err
	}

	referent, err := f.fetchOne(ctx, repo.TableFarmReferents, store.Filters{"farm_uuid": farmUUID, "person_role_id": roleID})
	if err != nil || referent == nil {
		return store.Row{}, err
	}
	personUUID := referent.String("person_uuid")
	if personUUID == "" {
		return store.Row{}, nil
	}

	person, err := f.fetchOne(ctx, repo.TablePersons, store.Filters{"uuid": personUUID})
	if err != nil || person == nil {
		return store.Row{}, err
	}
	return person, nil
}

// GetCompanyByRole resolve papel de empresa, vínculo e empresa, com a mesma degradação.
func (f *Facade) GetCompanyByRole(ctx context.Context, farmUUID, roleName string) (store.Row, error) {
	roleID, ok, err := f.roleID(ctx, repo.TableCompanyRoles, roleName)
	if err != nil || !ok {
		return store.Row{}, err
	}

	link, err := f.fetchOne(ctx, repo.TableFarmCompanyRoles, store.Filters{"farm_uuid": farmUUID, "company_role_id": roleID})
	if err != nil || link == nil {
		return store.Row{}, err
	}
	companyUUID := link.String("company_uuid")
	if companyUUID == "" {
		return store.Row{}, nil
	}

	company, err := f.fetchOne(ctx, repo.TableCompanies, store.Filters{"uuid": companyUUID})
	if err != nil || company == nil {
		return store.Row{}, err
	}
	return company, nil
}

// ListReferents devolve todos os papéis de pessoa com o referente da usina, se houver.
func (f *Facade) ListReferents(ctx context.Context, farmUUID string) ([]repo.Referent, error) {
	roles, err := f.fetchAll(ctx, repo.TablePersonRoles, nil, "id")
	if err != nil {
		return []repo.Referent{}, err
	}
	links, err := f.fetchAll(ctx, repo.TableFarmReferents, store.Filters{"farm_uuid": farmUUID}, "")
	if err != nil {
		return []repo.Referent{}, err
	}

	byRole := make(map[int64]string, len(links))
	for _, link := range links {
		if id, ok := link.Int64("person_role_id"); ok {
			byRole[id] = link.String("person_uuid")
		}
	}

	var errs []error
	result := make([]repo.Referent, 0, len(roles))
	for _, role := range roles {
		id, _ := role.Int64("id")
		ref := repo.Referent{RoleID: id, RoleName: role.String("role_name"), Person: store.Row{}}
		if personUUID := byRole[id]; personUUID != "" {
			person, err := f.fetchOne(ctx, repo.TablePersons, store.Filters{"uuid": personUUID})
			errs = append(errs, err)
			if person != nil {
				ref.Person = person
			}
		}
		result = append(result, ref)
	}
	return result, errors.Join(errs...)
}

// ListServiceCompanies devolve todos os papéis de empresa com a prestadora da usina, se houver.
func (f *Facade) ListServiceCompanies(ctx context.Context, farmUUID string) ([]repo.ServiceCompany, error) {
	roles, err := f.fetchAll(ctx, repo.TableCompanyRoles, nil, "id")
	if err != nil {
		return []repo.ServiceCompany{}, err
	}
	links, err := f.fetchAll(ctx, repo.TableFarmCompanyRoles, store.Filters{"farm_uuid": farmUUID}, "")
	if err != nil {
		return []repo.ServiceCompany{}, err
	}

	byRole := make(map[int64]string, len(links))
	for _, link := range links {
		if id, ok := link.Int64("company_role_id"); ok {
			byRole[id] = link.String("company_uuid")
		}
	}

	var errs []error
	result := make([]repo.ServiceCompany, 0, len(roles))
	for _, role := range roles {
		id, _ := role.Int64("id")
		svc := repo.ServiceCompany{RoleID: id, RoleName: role.String("role_name"), Company: store.Row{}}
		if companyUUID := byRole[id]; companyUUID != "" {
			company, err := f.fetchOne(ctx, repo.TableCompanies, store.Filters{"uuid": companyUUID})
			errs = append(errs, err)
			if company != nil {
				svc.Company = company
			}
		}
		result = append(result, svc)
	}
	return result, errors.Join(errs...)
}

// SetReferent atribui a pessoa ao papel na usina. personUUID vazio remove o referente.
// Existe no máximo um referente por (usina, papel): atualiza quando já existe, insere caso contrário.
func (f *Facade) SetReferent(ctx context.Context, farmUUID, roleName, personUUID string) error {
	farm, roleID, err := f.farmAndRole(ctx, farmUUID, repo.TablePersonRoles, roleName)
	if err != nil {
		return err
	}
	personUUID = strings.TrimSpace(personUUID)

	key := store.Filters{"farm_uuid": farmUUID, "person_role_id": roleID}
	existing, err := f.fetchOne(ctx, repo.TableFarmReferents, key)
	if err != nil {
		return err
	}

	switch {
	case personUUID == "":
		if existing == nil {
			return nil
		}
		_, err = f.DeleteRecord(ctx, repo.TableFarmReferents, key)
		return err
	case existing != nil:
		_, err = f.UpdateRecord(ctx, repo.TableFarmReferents, key, store.Row{"person_uuid": personUUID})
		return err
	default:
		_, err = f.InsertRecord(ctx, repo.TableFarmReferents, store.Row{
			"uuid":           util.NewID(),
			"farm_uuid":      farmUUID,
			"farm_code":      farm.String("code"),
			"person_role_id": roleID,
			"person_uuid":    personUUID,
		})
		return err
	}
}

// SetServiceCompany atribui a empresa ao papel na usina. companyUUID vazio remove o vínculo.
func (f *Facade) SetServiceCompany(ctx context.Context, farmUUID, roleName, companyUUID string) error {
	farm, roleID, err := f.farmAndRole(ctx, farmUUID, repo.TableCompanyRoles, roleName)
	if err != nil {
		return err
	}
	companyUUID = strings.TrimSpace(companyUUID)

	key := store.Filters{"farm_uuid": farmUUID, "company_role_id": roleID}
	existing, err := f.fetchOne(ctx, repo.TableFarmCompanyRoles, key)
	if err != nil {
		return err
	}

	switch {
	case companyUUID == "":
		if existing == nil {
			return nil
		}
		_, err = f.DeleteRecord(ctx, repo.TableFarmCompanyRoles, key)
		return err
	case existing != nil:
		_, err = f.UpdateRecord(ctx, repo.TableFarmCompanyRoles, key, store.Row{"company_uuid": companyUUID})
		return err
	default:
		_, err = f.InsertRecord(ctx, repo.TableFarmCompanyRoles, store.Row{
			"farm_uuid":       farmUUID,
			"farm_code":       farm.String("code"),
			"company_role_id": roleID,
			"company_uuid":    companyUUID,
		})
		return err
	}
}

func (f *Facade) farmAndRole(ctx context.Context, farmUUID, rolesTable, roleName string) (store.Row, int64, error) {
	farm, err := f.GetFarm(ctx, farmUUID)
	if err != nil {
		return nil, 0, err
	}
	if farm == nil {
		return nil, 0, fmt.Errorf("usina %s: %w", farmUUID, repo.ErrNotFound)
	}
	roleID, ok, err := f.roleID(ctx, rolesTable, roleName)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", repo.ErrUnknownRole, roleName)
	}
	return farm, roleID, nil
}
