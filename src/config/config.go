package config

import (
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	Development        = "dev"
	Production         = "prod"
	ConfigBaseFileName = "jobdrop"

	BlobProviderCloudinary = "cloudinary"
	BlobProviderS3         = "s3"
)

type Http struct {
	Addr string `yaml:"addr" env:"JOBDROP_HTTP_ADDR"`
}

type Database struct {
	Url            string `yaml:"url" env:"JOBDROP_DATABASE_URL"`
	DB             string `yaml:"db" env:"JOBDROP_DATABASE"`
	JobsCollection string `yaml:"jobsCollection" env:"JOBDROP_JOBS_COLLECTION"`
}

type Broker struct {
	Url string `yaml:"url" env:"JOBDROP_BROKER_URL"`
}

type Cloudinary struct {
	CloudName string `yaml:"cloudName" env:"CLOUDINARY_CLOUD_NAME"`
	ApiKey    string `yaml:"apiKey" env:"CLOUDINARY_API_KEY"`
	ApiSecret string `yaml:"apiSecret" env:"CLOUDINARY_API_SECRET"`
}

type S3 struct {
	Bucket        string `yaml:"bucket" env:"JOBDROP_S3_BUCKET"`
	Region        string `yaml:"region" env:"JOBDROP_S3_REGION"`
	Endpoint      string `yaml:"endpoint" env:"JOBDROP_S3_ENDPOINT"`
	PublicBaseUrl string `yaml:"publicBaseUrl" env:"JOBDROP_S3_PUBLIC_BASE_URL"`
}

type Blob struct {
	Provider   string     `yaml:"provider" env:"JOBDROP_BLOB_PROVIDER"`
	Folder     string     `yaml:"folder" env:"JOBDROP_BLOB_FOLDER"`
	Cloudinary Cloudinary `yaml:"cloudinary"`
	S3         S3         `yaml:"s3"`
}

type Reconcile struct {
	// Schedule is a cron expression; empty disables the background sweep.
	Schedule string        `yaml:"schedule" env:"JOBDROP_RECONCILE_SCHEDULE"`
	MinAge   time.Duration `yaml:"minAge" env:"JOBDROP_RECONCILE_MIN_AGE"`
	Delete   bool          `yaml:"delete" env:"JOBDROP_RECONCILE_DELETE"`
}

type Config struct {
	Name      string    `yaml:"name"`
	Version   string    `yaml:"version"`
	LogLevel  string    `yaml:"logLevel" env:"LOG_LEVEL"`
	Http      Http      `yaml:"http"`
	Database  Database  `yaml:"database"`
	Broker    Broker    `yaml:"broker"`
	Blob      Blob      `yaml:"blob"`
	Reconcile Reconcile `yaml:"reconcile"`
}

func Default() *Config {
	return &Config{
		Name:     "jobdrop",
		LogLevel: "info",
		Http: Http{
			Addr: ":5000",
		},
		Database: Database{
			Url:            "mongodb://localhost:27017",
			DB:             "jobdrop",
			JobsCollection: "jobs",
		},
		Blob: Blob{
			Provider: BlobProviderCloudinary,
			Folder:   "job-uploads",
		},
		Reconcile: Reconcile{
			MinAge: time.Hour,
		},
	}
}

// LoadConfig reads .env, then the first jobdrop[.<env>].yml|yaml found on the
// search path, then applies environment overrides. Without a file the
// defaults plus environment are used.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("JOBDROP_ENV")
	if env != "" {
		env = "." + env
	}

	configFileExt := []string{".yml", ".yaml"}

	homePath, ok := os.LookupEnv("HOME")
	if ok {
		homePath += "/.jobdrop"
	}

	pwdPath, _ := os.LookupEnv("PWD")

	configPaths := []string{
		"/etc/jobdrop.d/",
		homePath + "/",
		pwdPath + "/",
	}

	var found string
	for _, dir := range configPaths {
		for _, ext := range configFileExt {
			path := dir + ConfigBaseFileName + env + ext
			if _, err := os.Stat(path); err == nil {
				found = path
			}
		}
	}

	if found == "" {
		cfg := Default()
		if err := OverrideEnvs(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return ConfigFromYaml(found)
}

func ConfigFromYaml(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config %s", filePath)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", filePath)
	}

	if err := OverrideEnvs(config); err != nil {
		return nil, err
	}

	return config, nil
}

func OverrideEnvs(obj interface{}) error {
	return setFieldFromEnv(reflect.ValueOf(obj))
}

func setFieldFromEnv(v reflect.Value) error {

	t := v.Type()

	if t.Kind() == reflect.Ptr {
		v = v.Elem()
		t = v.Type()
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	for i := range t.NumField() {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := setFieldFromEnv(fieldValue); err != nil {
				return err
			}
			continue
		}

		if err := checkEnv(field, fieldValue); err != nil {
			return err
		}
	}

	return nil
}

func checkEnv(field reflect.StructField, fieldValue reflect.Value) error {
	envTag := field.Tag.Get("env")
	if envTag == "" {
		return nil
	}
	envValue := os.Getenv(envTag)
	if envValue == "" || !fieldValue.CanSet() {
		return nil
	}

	switch {
	case field.Type == reflect.TypeOf(time.Duration(0)):
		d, err := time.ParseDuration(envValue)
		if err != nil {
			return errors.Wrapf(err, "env %s", envTag)
		}
		fieldValue.SetInt(int64(d))
	case field.Type.Kind() == reflect.String:
		fieldValue.SetString(envValue)
	case field.Type.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(envValue)
		if err != nil {
			return errors.Wrapf(err, "env %s", envTag)
		}
		fieldValue.SetBool(b)
	case field.Type.Kind() == reflect.Int:
		n, err := strconv.Atoi(envValue)
		if err != nil {
			return errors.Wrapf(err, "env %s", envTag)
		}
		fieldValue.SetInt(int64(n))
	}
	return nil
}
