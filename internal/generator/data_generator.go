package generator

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/pkg/models"
)

var (
	enumRegex  = regexp.MustCompile(`(?i)^(?:enum|set)\((.+)\)$`)
	valueRegex = regexp.MustCompile(`'([^']*)'`)
)

// DataGenerator produces mock cell values from column names and types.
// Two generators built with the same seed and reference time produce the
// same sequence of values.
type DataGenerator struct {
	Faker  faker.Faker
	Rand   *rand.Rand
	Now    time.Time
	Logger *logrus.Logger
}

// NewDataGenerator creates a seeded data generator. Dates are generated
// relative to now.
func NewDataGenerator(seed int64, now time.Time, logger *logrus.Logger) *DataGenerator {
	return &DataGenerator{
		Faker:  faker.NewWithSeed(rand.NewSource(seed)),
		Rand:   rand.New(rand.NewSource(seed)),
		Now:    now,
		Logger: logger,
	}
}

// GenerateData generates a value for a column based on its name and type
func (dg *DataGenerator) GenerateData(table string, column models.Column) interface{} {
	columnName := strings.ToLower(column.Name)
	dataType := strings.ToLower(column.DataType)

	if column.IsNullable && strings.Contains(columnName, "deleted_at") {
		if dg.Rand.Float32() < 0.7 {
			return nil
		}
	}

	if dataType == "enum" || dataType == "set" {
		return dg.generateEnum(column)
	}

	if v, ok := dg.generateByName(columnName); ok {
		return v
	}

	switch dataType {
	case "varchar", "char", "text", "tinytext", "mediumtext", "longtext":
		return dg.generateString(column)
	case "int", "tinyint", "smallint", "mediumint", "bigint", "integer":
		return dg.generateInteger(column)
	case "float", "double", "decimal", "numeric", "real":
		return dg.generateFloat(column)
	case "date", "datetime", "timestamp":
		return dg.generateDateTime()
	case "year":
		return dg.Now.Year() - dg.Rand.Intn(30)
	case "boolean", "bool":
		return dg.Rand.Intn(2) == 1
	default:
		dg.Logger.Debugf("No specific generator for %s.%s of type %s, using a word", table, column.Name, dataType)
		return dg.Faker.Lorem().Word()
	}
}

// generateByName covers columns whose name says more than their type
func (dg *DataGenerator) generateByName(columnName string) (interface{}, bool) {
	switch {
	case strings.Contains(columnName, "email"):
		return dg.Faker.Internet().Email(), true
	case strings.Contains(columnName, "name") && !strings.Contains(columnName, "file"):
		switch {
		case strings.Contains(columnName, "first"):
			return dg.Faker.Person().FirstName(), true
		case strings.Contains(columnName, "last"):
			return dg.Faker.Person().LastName(), true
		case strings.Contains(columnName, "user"):
			return dg.Faker.Internet().User(), true
		case strings.Contains(columnName, "company") || strings.Contains(columnName, "business") || strings.Contains(columnName, "supplier"):
			return dg.Faker.Company().Name(), true
		default:
			return dg.Faker.Person().Name(), true
		}
	case strings.Contains(columnName, "phone"):
		return dg.Faker.Phone().Number(), true
	case strings.Contains(columnName, "address"):
		return dg.Faker.Address().Address(), true
	case strings.Contains(columnName, "city"):
		return dg.Faker.Address().City(), true
	case strings.Contains(columnName, "country"):
		return dg.Faker.Address().Country(), true
	case columnName == "lat" || strings.Contains(columnName, "latitude"):
		return dg.Faker.Address().Latitude(), true
	case columnName == "lng" || columnName == "lon" || strings.Contains(columnName, "longitude"):
		return dg.Faker.Address().Longitude(), true
	case strings.Contains(columnName, "description") || strings.Contains(columnName, "summary") || strings.Contains(columnName, "notes"):
		return dg.Faker.Lorem().Sentence(12), true
	case strings.Contains(columnName, "title"):
		return dg.Faker.Lorem().Sentence(4), true
	case strings.Contains(columnName, "url") || strings.Contains(columnName, "website"):
		return dg.Faker.Internet().URL(), true
	case columnName == "ip" || strings.HasSuffix(columnName, "_ip"):
		return dg.Faker.Internet().Ipv4(), true
	case strings.Contains(columnName, "color"):
		return dg.Faker.Color().Hex(), true
	case strings.Contains(columnName, "uuid"):
		return dg.Faker.UUID().V4(), true
	case strings.Contains(columnName, "amount") || strings.Contains(columnName, "balance") ||
		strings.Contains(columnName, "loss") || strings.Contains(columnName, "price"):
		return math.Round(dg.Rand.Float64()*100000) / 100, true
	case strings.HasSuffix(columnName, "_at") || strings.HasSuffix(columnName, "_on"):
		return dg.generateDateTime(), true
	}
	return nil, false
}

// generateString generates a string value that fits the column length
func (dg *DataGenerator) generateString(column models.Column) string {
	maxLength := int64(255)
	if column.CharMaxLength != nil && *column.CharMaxLength > 0 {
		maxLength = *column.CharMaxLength
	}

	length := dg.Rand.Int63n(min(maxLength, 100)) + 1

	var s string
	switch {
	case length <= 5:
		s = dg.Faker.RandomStringWithLength(int(length))
	case length <= 20:
		s = dg.Faker.Lorem().Word()
	default:
		s = dg.Faker.Lorem().Sentence(int(length / 10))
	}
	if int64(len(s)) > maxLength {
		s = s[:maxLength]
	}
	return s
}

// generateInteger generates a small positive integer; mock graphs read
// better with values in a human range
func (dg *DataGenerator) generateInteger(column models.Column) interface{} {
	columnType := strings.ToLower(column.ColumnType)
	if strings.ToLower(column.DataType) == "tinyint" && strings.Contains(columnType, "tinyint(1)") {
		return int64(dg.Rand.Intn(2))
	}
	if strings.ToLower(column.DataType) == "tinyint" {
		return int64(dg.Rand.Intn(128))
	}
	return int64(dg.Rand.Intn(10000))
}

// generateFloat generates a float rounded to the column scale
func (dg *DataGenerator) generateFloat(column models.Column) float64 {
	value := dg.Rand.Float64() * 1000
	if column.NumericScale != nil {
		multiplier := math.Pow(10, float64(*column.NumericScale))
		value = math.Trunc(value*multiplier) / multiplier
	}
	return value
}

// generateDateTime generates a timestamp within the five years before Now
func (dg *DataGenerator) generateDateTime() time.Time {
	offset := time.Duration(dg.Rand.Int63n(int64(5 * 365 * 24 * time.Hour)))
	return dg.Now.Add(-offset).Truncate(time.Second)
}

// generateEnum picks one of the values listed in an enum('a','b') column type
func (dg *DataGenerator) generateEnum(column models.Column) string {
	values := EnumValues(column.ColumnType)
	if len(values) == 0 {
		return ""
	}
	return values[dg.Rand.Intn(len(values))]
}

// EnumValues extracts the allowed values of an enum or set column type
func EnumValues(columnType string) []string {
	matches := enumRegex.FindStringSubmatch(strings.TrimSpace(columnType))
	if len(matches) < 2 {
		return nil
	}

	var values []string
	for _, match := range valueRegex.FindAllStringSubmatch(matches[1], -1) {
		values = append(values, match[1])
	}
	return values
}

// DescribeValue renders a generated value for debug logs
func DescribeValue(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateTime)
	}
	return fmt.Sprintf("%v", v)
}
